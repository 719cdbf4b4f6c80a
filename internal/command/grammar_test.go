package command

import (
	"errors"
	"testing"
)

func rawArgs(args ...string) [][]byte {
	out := make([][]byte, len(args))
	for i, a := range args {
		out[i] = []byte(a)
	}
	return out
}

func TestArgsSequential(t *testing.T) {
	a := NewArgs(rawArgs("key", "10", "2.5", "rest1", "rest2"))

	s, err := a.String()
	if err != nil || s != "key" {
		t.Fatalf("String() = %q, %v", s, err)
	}
	n, err := a.Int()
	if err != nil || n != 10 {
		t.Fatalf("Int() = %d, %v", n, err)
	}
	f, err := a.Float()
	if err != nil || f != 2.5 {
		t.Fatalf("Float() = %v, %v", f, err)
	}
	rest := a.RestStrings()
	if len(rest) != 2 || rest[0] != "rest1" {
		t.Fatalf("RestStrings() = %v", rest)
	}
	if a.More() {
		t.Error("args should be exhausted")
	}
	if _, err := a.Next(); !errors.Is(err, ErrArgCount) {
		t.Errorf("Next() past end = %v, want ErrArgCount", err)
	}
}

func TestArgsNumericErrors(t *testing.T) {
	a := NewArgs(rawArgs("abc"))
	if _, err := a.Int(); !errors.Is(err, ErrNotInteger) {
		t.Errorf("Int(abc) = %v, want ErrNotInteger", err)
	}

	a = NewArgs(rawArgs("abc"))
	if _, err := a.Float(); !errors.Is(err, ErrNotFloat) {
		t.Errorf("Float(abc) = %v, want ErrNotFloat", err)
	}

	a = NewArgs(rawArgs("+inf"))
	f, err := a.Float()
	if err != nil || f <= 0 {
		t.Errorf("Float(+inf) = %v, %v", f, err)
	}
}

func TestOptionsBinding(t *testing.T) {
	a := NewArgs(rawArgs("EX", "10", "NX", "get"))
	opts, err := Options(a,
		Opt{Token: "EX", Params: []ParamKind{ParamInt}, Group: "exp"},
		Opt{Token: "PX", Params: []ParamKind{ParamInt}, Group: "exp"},
		Opt{Token: "NX", Group: "cond"},
		Opt{Token: "XX", Group: "cond"},
		Opt{Token: "GET"},
	)
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}

	if v, ok := opts.Int("EX"); !ok || v != 10 {
		t.Errorf("EX = %d, %v", v, ok)
	}
	if !opts.Has("NX") || !opts.Has("GET") {
		t.Error("NX and GET should be bound")
	}
	if opts.Has("XX") {
		t.Error("XX was not given")
	}
}

func TestOptionsMutualExclusion(t *testing.T) {
	a := NewArgs(rawArgs("EX", "10", "PX", "500"))
	_, err := Options(a,
		Opt{Token: "EX", Params: []ParamKind{ParamInt}, Group: "exp"},
		Opt{Token: "PX", Params: []ParamKind{ParamInt}, Group: "exp"},
	)
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("EX+PX should be a syntax error, got %v", err)
	}
}

func TestOptionsUnknownToken(t *testing.T) {
	a := NewArgs(rawArgs("BOGUS"))
	if _, err := Options(a, Opt{Token: "EX", Params: []ParamKind{ParamInt}}); !errors.Is(err, ErrSyntax) {
		t.Errorf("unknown token should be a syntax error, got %v", err)
	}
}

func TestOptionsMissingParam(t *testing.T) {
	a := NewArgs(rawArgs("EX"))
	if _, err := Options(a, Opt{Token: "EX", Params: []ParamKind{ParamInt}}); !errors.Is(err, ErrSyntax) {
		t.Errorf("missing parameter should be a syntax error, got %v", err)
	}
}

func TestOptionsRepeatRejected(t *testing.T) {
	a := NewArgs(rawArgs("GET", "GET"))
	if _, err := Options(a, Opt{Token: "GET"}); !errors.Is(err, ErrSyntax) {
		t.Errorf("repeated option should be a syntax error, got %v", err)
	}
}
