package lexer

import (
	"fmt"

	"nl/internal/source"
)

// UnrecognizedInputError reports a contiguous run of bytes that match no
// token rule.
type UnrecognizedInputError struct {
	Range source.Range
	Text  string
}

func (e *UnrecognizedInputError) Error() string {
	return fmt.Sprintf("💥 unrecognized input: %q", e.Text)
}

// UnterminatedStringError reports a string literal with no closing quote,
// anchored at the opening quote.
type UnterminatedStringError struct {
	Range source.Range
}

func (e *UnterminatedStringError) Error() string {
	return "💥 unexpected end of string"
}
