package glob

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		s       string
		want    bool
	}{
		{"*", "", true},
		{"*", "anything", true},
		{"", "", true},
		{"", "x", false},
		{"foo", "foo", true},
		{"foo", "bar", false},
		{"foo*", "foobar", true},
		{"foo*", "fo", false},
		{"*bar", "foobar", true},
		{"f*o*r", "foobar", true},
		{"f?o", "foo", true},
		{"f?o", "fo", false},
		{"h?llo", "hello", true},
		{"h?llo", "hallo", true},
		{"h[ae]llo", "hello", true},
		{"h[ae]llo", "hillo", false},
		{"h[^e]llo", "hallo", true},
		{"h[^e]llo", "hello", false},
		{"h[a-c]llo", "hbllo", true},
		{"h[a-c]llo", "hdllo", false},
		{`h\?llo`, "h?llo", true},
		{`h\?llo`, "hello", false},
		{`h\*llo`, "h*llo", true},
		{"foo:*", "foo:bar", true},
		{"foo:*", "bar:baz", false},
		{"**", "x", true},
		{"a*b*c", "aXbYc", true},
		{"a*b*c", "aXcYb", false},
		{"[", "x", false},
	}

	for _, tt := range tests {
		if got := Match(tt.pattern, tt.s); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}

func TestIsPlain(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"foo", true},
		{"foo:bar", true},
		{"foo*", false},
		{"f?o", false},
		{"f[ab]", false},
		{`f\*`, false},
	}

	for _, tt := range tests {
		if got := IsPlain(tt.pattern); got != tt.want {
			t.Errorf("IsPlain(%q) = %v, want %v", tt.pattern, got, tt.want)
		}
	}
}
