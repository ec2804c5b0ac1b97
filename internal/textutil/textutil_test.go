package textutil

import "testing"

func TestSanitizeSnippet(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"printable ascii passes through", []byte("hello"), "hello"},
		{"newline escaped", []byte("a\nb"), `a\nb`},
		{"carriage return escaped", []byte("a\rb"), `a\rb`},
		{"tab escaped", []byte("a\tb"), `a\tb`},
		{"nul becomes dots", []byte("a\x00b"), "a..b"},
		{"high byte becomes dots", []byte{0x41, 0xFF, 0x42}, "A..B"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := SanitizeSnippet(c.in); got != c.want {
				t.Errorf("SanitizeSnippet(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestJSONEscape(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain string unchanged", "hello", "hello"},
		{"backslash escaped", `a\b`, `a\\b`},
		{"quote escaped", `a"b`, `a\"b`},
		{"newline escaped", "a\nb", `a\nb`},
		{"control byte becomes dots", "a\x01b", "a..b"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := JSONEscape(c.in); got != c.want {
				t.Errorf("JSONEscape(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}
