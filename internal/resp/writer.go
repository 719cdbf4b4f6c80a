package resp

import (
	"bufio"
	"strconv"
)

// Writer encodes reply values for one connection. It is not safe for
// concurrent use; the owning session serializes access.
type Writer struct {
	bw    *bufio.Writer
	proto int
}

// NewWriter wraps a buffered writer speaking the given protocol version
// (2 or 3).
func NewWriter(bw *bufio.Writer, proto int) *Writer {
	if proto != 3 {
		proto = 2
	}
	return &Writer{bw: bw, proto: proto}
}

// SetProtocol switches the protocol version after a HELLO negotiation.
func (w *Writer) SetProtocol(proto int) {
	if proto == 3 {
		w.proto = 3
	} else {
		w.proto = 2
	}
}

// Protocol returns the active protocol version.
func (w *Writer) Protocol() int { return w.proto }

// Flush flushes the underlying buffered writer.
func (w *Writer) Flush() error { return w.bw.Flush() }

// WriteValue encodes one reply value.
func (w *Writer) WriteValue(v Value) error {
	return writeValue(w.bw, v, w.proto)
}

func writeValue(bw *bufio.Writer, v Value, proto int) error {
	switch v.Kind {
	case KindSimpleString:
		return writeLine(bw, '+', v.Str)

	case KindError:
		return writeLine(bw, '-', v.Str)

	case KindInteger:
		return writeLine(bw, ':', strconv.FormatInt(v.Int, 10))

	case KindBulkString:
		return writeBulk(bw, v.Bulk)

	case KindNull:
		if v.Format == "array" {
			_, err := bw.WriteString("*-1\r\n")
			return err
		}
		if proto >= 3 {
			_, err := bw.WriteString("_\r\n")
			return err
		}
		_, err := bw.WriteString("$-1\r\n")
		return err

	case KindArray:
		return writeAggregate(bw, '*', v.Elems, proto)

	case KindMap:
		if proto >= 3 {
			if err := writeLine(bw, '%', strconv.Itoa(len(v.Elems)/2)); err != nil {
				return err
			}
			for _, e := range v.Elems {
				if err := writeValue(bw, e, proto); err != nil {
					return err
				}
			}
			return nil
		}
		// RESP2: flat array of alternating key/value.
		return writeAggregate(bw, '*', v.Elems, proto)

	case KindSet:
		if proto >= 3 {
			return writeAggregate(bw, '~', v.Elems, proto)
		}
		return writeAggregate(bw, '*', v.Elems, proto)

	case KindPush:
		if proto >= 3 {
			return writeAggregate(bw, '>', v.Elems, proto)
		}
		return writeAggregate(bw, '*', v.Elems, proto)

	case KindDouble:
		if proto >= 3 {
			return writeLine(bw, ',', FormatFloat(v.Float))
		}
		return writeBulk(bw, []byte(FormatFloat(v.Float)))

	case KindBoolean:
		if proto >= 3 {
			if v.Bool {
				_, err := bw.WriteString("#t\r\n")
				return err
			}
			_, err := bw.WriteString("#f\r\n")
			return err
		}
		if v.Bool {
			return writeLine(bw, ':', "1")
		}
		return writeLine(bw, ':', "0")

	case KindBigNumber:
		if proto >= 3 {
			return writeLine(bw, '(', v.Str)
		}
		return writeBulk(bw, []byte(v.Str))

	case KindVerbatim:
		if proto >= 3 {
			body := v.Bulk
			format := v.Format
			if len(format) != 3 {
				format = "txt"
			}
			if err := writeLine(bw, '=', strconv.Itoa(len(body)+4)); err != nil {
				return err
			}
			if _, err := bw.WriteString(format + ":"); err != nil {
				return err
			}
			if _, err := bw.Write(body); err != nil {
				return err
			}
			_, err := bw.WriteString("\r\n")
			return err
		}
		return writeBulk(bw, v.Bulk)

	default:
		return writeLine(bw, '-', "ERR unencodable reply")
	}
}

func writeLine(bw *bufio.Writer, marker byte, s string) error {
	if err := bw.WriteByte(marker); err != nil {
		return err
	}
	if _, err := bw.WriteString(s); err != nil {
		return err
	}
	_, err := bw.WriteString("\r\n")
	return err
}

func writeBulk(bw *bufio.Writer, b []byte) error {
	if b == nil {
		_, err := bw.WriteString("$-1\r\n")
		return err
	}
	if err := writeLine(bw, '$', strconv.Itoa(len(b))); err != nil {
		return err
	}
	if _, err := bw.Write(b); err != nil {
		return err
	}
	_, err := bw.WriteString("\r\n")
	return err
}

func writeAggregate(bw *bufio.Writer, marker byte, elems []Value, proto int) error {
	if err := writeLine(bw, marker, strconv.Itoa(len(elems))); err != nil {
		return err
	}
	for _, e := range elems {
		if err := writeValue(bw, e, proto); err != nil {
			return err
		}
	}
	return nil
}
