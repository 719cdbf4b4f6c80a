package command

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Binding errors.
var (
	// ErrSyntax is the generic grammar mismatch ("syntax error").
	ErrSyntax = errors.New("syntax error")
	// ErrArgCount reports too few or too many arguments.
	ErrArgCount = errors.New("wrong number of arguments")
	// ErrNotInteger reports a non-integer numeric slot.
	ErrNotInteger = errors.New("value is not an integer or out of range")
	// ErrNotFloat reports a non-float numeric slot.
	ErrNotFloat = errors.New("value is not a valid float")
)

// Args is a sequential reader over a command's argument vector
// (excluding the command name itself).
type Args struct {
	raw [][]byte
	pos int
}

// NewArgs wraps an argument vector.
func NewArgs(raw [][]byte) *Args { return &Args{raw: raw} }

// Remaining returns how many arguments are unread.
func (a *Args) Remaining() int { return len(a.raw) - a.pos }

// More reports whether any arguments remain.
func (a *Args) More() bool { return a.pos < len(a.raw) }

// Peek returns the next argument uppercased without consuming it.
func (a *Args) Peek() (string, bool) {
	if !a.More() {
		return "", false
	}
	return strings.ToUpper(string(a.raw[a.pos])), true
}

// Next consumes the next raw argument.
func (a *Args) Next() ([]byte, error) {
	if !a.More() {
		return nil, ErrArgCount
	}
	v := a.raw[a.pos]
	a.pos++
	return v, nil
}

// String consumes the next argument as a string.
func (a *Args) String() (string, error) {
	b, err := a.Next()
	return string(b), err
}

// Int consumes the next argument as a signed 64-bit integer.
func (a *Args) Int() (int64, error) {
	b, err := a.Next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}

// Float consumes the next argument as a float, accepting inf spellings.
func (a *Args) Float() (float64, error) {
	b, err := a.Next()
	if err != nil {
		return 0, err
	}
	s := strings.ToLower(string(b))
	switch s {
	case "inf", "+inf", "infinity", "+infinity":
		return inf(1), nil
	case "-inf", "-infinity":
		return inf(-1), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrNotFloat
	}
	return f, nil
}

// Rest consumes and returns all remaining arguments.
func (a *Args) Rest() [][]byte {
	out := a.raw[a.pos:]
	a.pos = len(a.raw)
	return out
}

// RestStrings consumes all remaining arguments as strings.
func (a *Args) RestStrings() []string {
	raw := a.Rest()
	out := make([]string, len(raw))
	for i, b := range raw {
		out[i] = string(b)
	}
	return out
}

func inf(sign int) float64 { return math.Inf(sign) }

// ---------------------------------------------------------------------
// Declarative option grammar.
//
// A command's trailing options are described as a table of Opt records;
// Options scans the remaining arguments, matching case-insensitive
// tokens, binding their parameter slots and enforcing one-of groups.
// ---------------------------------------------------------------------

// ParamKind types one option parameter slot.
type ParamKind int

const (
	// ParamBytes binds a raw byte-string parameter.
	ParamBytes ParamKind = iota
	// ParamInt binds an integer parameter.
	ParamInt
	// ParamFloat binds a float parameter.
	ParamFloat
)

// Opt describes one token option.
type Opt struct {
	// Token is the uppercase option word ("EX", "MATCH", "NX").
	Token string
	// Params types the parameter slots following the token.
	Params []ParamKind
	// Group names a one-of group; two options sharing a non-empty
	// group may not both appear.
	Group string
}

// BoundOpt is one matched option with its decoded parameters.
type BoundOpt struct {
	Token  string
	Bytes  [][]byte
	Ints   []int64
	Floats []float64
}

// OptSet is the result of an Options scan.
type OptSet map[string]*BoundOpt

// Has reports whether the token appeared.
func (o OptSet) Has(token string) bool {
	_, ok := o[token]
	return ok
}

// Int returns the first integer parameter of the token.
func (o OptSet) Int(token string) (int64, bool) {
	b, ok := o[token]
	if !ok || len(b.Ints) == 0 {
		return 0, false
	}
	return b.Ints[0], true
}

// Bytes returns the first byte parameter of the token.
func (o OptSet) Bytes(token string) ([]byte, bool) {
	b, ok := o[token]
	if !ok || len(b.Bytes) == 0 {
		return nil, false
	}
	return b.Bytes[0], true
}

// String returns the first byte parameter as a string.
func (o OptSet) String(token string) (string, bool) {
	b, ok := o.Bytes(token)
	return string(b), ok
}

// Options scans every remaining argument against the option table.
// Unknown tokens, repeated options and one-of violations fail with
// ErrSyntax; missing parameters fail with ErrSyntax as well.
func Options(a *Args, opts ...Opt) (OptSet, error) {
	byToken := make(map[string]*Opt, len(opts))
	for i := range opts {
		byToken[opts[i].Token] = &opts[i]
	}

	bound := make(OptSet)
	groups := make(map[string]string)

	for a.More() {
		word, _ := a.Peek()
		opt, ok := byToken[word]
		if !ok {
			return nil, ErrSyntax
		}
		a.pos++

		if _, dup := bound[opt.Token]; dup {
			return nil, ErrSyntax
		}
		if opt.Group != "" {
			if prev, taken := groups[opt.Group]; taken && prev != opt.Token {
				return nil, ErrSyntax
			}
			groups[opt.Group] = opt.Token
		}

		b := &BoundOpt{Token: opt.Token}
		for _, kind := range opt.Params {
			switch kind {
			case ParamBytes:
				v, err := a.Next()
				if err != nil {
					return nil, ErrSyntax
				}
				b.Bytes = append(b.Bytes, v)
			case ParamInt:
				v, err := a.Int()
				if err != nil {
					if errors.Is(err, ErrNotInteger) {
						return nil, err
					}
					return nil, ErrSyntax
				}
				b.Ints = append(b.Ints, v)
			case ParamFloat:
				v, err := a.Float()
				if err != nil {
					if errors.Is(err, ErrNotFloat) {
						return nil, err
					}
					return nil, ErrSyntax
				}
				b.Floats = append(b.Floats, v)
			}
		}
		bound[opt.Token] = b
	}
	return bound, nil
}
