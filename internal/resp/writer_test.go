package resp

import (
	"bufio"
	"bytes"
	"testing"
)

func encode(t *testing.T, v Value, proto int) string {
	t.Helper()
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	w := NewWriter(bw, proto)
	if err := w.WriteValue(v); err != nil {
		t.Fatalf("WriteValue() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	return buf.String()
}

func TestEncodeRESP2(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"simple string", SimpleString("PONG"), "+PONG\r\n"},
		{"error", Err("ERR", "unknown command"), "-ERR unknown command\r\n"},
		{"integer", Integer(15), ":15\r\n"},
		{"bulk", BulkText("15"), "$2\r\n15\r\n"},
		{"empty bulk", BulkText(""), "$0\r\n\r\n"},
		{"null", Null(), "$-1\r\n"},
		{"null array", NullArray(), "*-1\r\n"},
		{"array", BulkArray([]byte("c"), []byte("b"), []byte("a")), "*3\r\n$1\r\nc\r\n$1\r\nb\r\n$1\r\na\r\n"},
		{"empty array", Array(), "*0\r\n"},
		{"nested", Array(Integer(1), Array(BulkText("x"))), "*2\r\n:1\r\n*1\r\n$1\r\nx\r\n"},
		{"boolean downgrade", Boolean(true), ":1\r\n"},
		{"double downgrade", Double(3.5), "$3\r\n3.5\r\n"},
		{"double integral", Double(2), "$1\r\n2\r\n"},
		{"map downgrade", Map(BulkText("k"), BulkText("v")), "*2\r\n$1\r\nk\r\n$1\r\nv\r\n"},
		{"set downgrade", Set(BulkText("m")), "*1\r\n$1\r\nm\r\n"},
		{"push downgrade", Push(BulkText("message")), "*1\r\n$7\r\nmessage\r\n"},
		{"verbatim downgrade", Verbatim("txt", "hi"), "$2\r\nhi\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encode(t, tt.v, 2); got != tt.want {
				t.Errorf("encode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeRESP3(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), "_\r\n"},
		{"boolean true", Boolean(true), "#t\r\n"},
		{"boolean false", Boolean(false), "#f\r\n"},
		{"double", Double(3.5), ",3.5\r\n"},
		{"map", Map(BulkText("proto"), Integer(3)), "%1\r\n$5\r\nproto\r\n:3\r\n"},
		{"set", Set(BulkText("m")), "~1\r\n$1\r\nm\r\n"},
		{"push", Push(BulkText("message")), ">1\r\n$7\r\nmessage\r\n"},
		{"big number", BigNumber("3492890328409238509324850943850943825024385"), "(3492890328409238509324850943850943825024385\r\n"},
		{"verbatim", Verbatim("txt", "hi"), "=6\r\ntxt:hi\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encode(t, tt.v, 3); got != tt.want {
				t.Errorf("encode = %q, want %q", got, tt.want)
			}
		})
	}
}

func roundTrip(t *testing.T, v Value, proto int) Value {
	t.Helper()
	raw := encode(t, v, proto)
	got, err := ReadValue(bufio.NewReader(bytes.NewReader([]byte(raw))))
	if err != nil {
		t.Fatalf("ReadValue(%q) error = %v", raw, err)
	}
	return got
}

func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind || a.Str != b.Str || a.Int != b.Int ||
		a.Float != b.Float || a.Bool != b.Bool || a.Format != b.Format {
		return false
	}
	if !bytes.Equal(a.Bulk, b.Bulk) {
		return false
	}
	if len(a.Elems) != len(b.Elems) {
		return false
	}
	for i := range a.Elems {
		if !valuesEqual(a.Elems[i], b.Elems[i]) {
			return false
		}
	}
	return true
}

// Round-trip: decode(encode(R)) == R for every RESP2-representable reply
// on protocol 2 and for every reply on protocol 3.
func TestRoundTrip(t *testing.T) {
	resp2Values := []Value{
		SimpleString("OK"),
		Err("WRONGTYPE", "Operation against a key holding the wrong kind of value"),
		Integer(-42),
		BulkText("hello"),
		BulkString([]byte{0, 1, 2, 255}),
		Null(),
		NullArray(),
		Array(),
		Array(Integer(1), BulkText("two"), Array(SimpleString("three"))),
	}
	resp3Values := append([]Value{
		Boolean(true),
		Boolean(false),
		Double(1.25),
		BigNumber("123456789012345678901234567890"),
		Verbatim("txt", "verbatim body"),
		Map(BulkText("a"), Integer(1), BulkText("b"), Integer(2)),
		Set(BulkText("x"), BulkText("y")),
		Push(BulkText("pmessage"), BulkText("p*"), BulkText("c"), BulkText("m")),
	}, resp2Values...)

	for _, v := range resp2Values {
		if got := roundTrip(t, v, 2); !valuesEqual(got, v) {
			t.Errorf("RESP2 round trip: got %+v, want %+v", got, v)
		}
	}
	for _, v := range resp3Values {
		if got := roundTrip(t, v, 3); !valuesEqual(got, v) {
			t.Errorf("RESP3 round trip: got %+v, want %+v", got, v)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-7, "-7"},
		{3.5, "3.5"},
		{1e100, "1e+100"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
