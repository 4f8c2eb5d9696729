package main

import "testing"

func TestInputCompleteDetectsTerminator(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"const x = 1;", true},
		{"const x = 1", false},
		{"proc f returns i4\n  const y = 1;\nend", true},
		{"proc f returns i4\n  const y = 1;\n", false},
		{"", true},
		{"const x = (1 + 2", false},
		{"const x = (1 + 2);", true},
	}
	for _, c := range cases {
		toks := probeTokens(c.text)
		if got := inputComplete(toks); got != c.want {
			t.Errorf("inputComplete(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestLooksLikeStatementVsExpression(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"const x = 1;", true},
		{"proc f returns i4\nend", true},
		{"1 + 2", false},
		{"!const x = 1;", true},
	}
	for _, c := range cases {
		toks := probeTokens(c.text)
		if got := looksLikeStatement(toks); got != c.want {
			t.Errorf("looksLikeStatement(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}
