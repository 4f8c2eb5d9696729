// Package diag implements the append-only diagnostic buffer: every compiler
// phase pushes located, kinded messages into a Bag and renders nothing
// itself — rendering is an external collaborator (see internal/diagrender).
package diag

import (
	"fmt"

	"nl/internal/source"
)

// Kind classifies a diagnostic message.
type Kind int

const (
	Error Kind = iota
	Warning
	Note
	Verbose
)

func (k Kind) String() string {
	switch k {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	case Verbose:
		return "verbose"
	default:
		return "unknown"
	}
}

// Message is one diagnostic: a formatted string anchored to a source range.
// Primary is false for secondary notes attached to a primary diagnostic
// (e.g. "previous declaration was here"); the renderer draws these with a
// narrower gutter.
type Message struct {
	Kind    Kind
	Text    string
	Primary bool
	Start   source.Location
	End     source.Location
}

// Bag is an append-only, insertion-ordered collection of diagnostics. The
// zero value is ready to use.
type Bag struct {
	messages []Message
}

// Push appends an already-formatted message.
func (b *Bag) Push(kind Kind, primary bool, rng source.Range, text string) {
	b.messages = append(b.messages, Message{Kind: kind, Text: text, Primary: primary, Start: rng.Start, End: rng.End})
}

// PushError formats and appends a primary error diagnostic.
func (b *Bag) PushError(rng source.Range, format string, args ...any) {
	b.Push(Error, true, rng, fmt.Sprintf(format, args...))
}

// PushWarning formats and appends a primary warning diagnostic.
func (b *Bag) PushWarning(rng source.Range, format string, args ...any) {
	b.Push(Warning, true, rng, fmt.Sprintf(format, args...))
}

// PushNote formats and appends a secondary note, typically following an
// error pushed moments earlier to point at related source (e.g. the
// original declaration in a recursive-use diagnostic).
func (b *Bag) PushNote(rng source.Range, format string, args ...any) {
	b.Push(Note, false, rng, fmt.Sprintf(format, args...))
}

// PushVerbose formats and appends a verbose diagnostic, for optional
// tracing output that is not part of the error taxonomy of
// Error/Warning/Note.
func (b *Bag) PushVerbose(rng source.Range, format string, args ...any) {
	b.Push(Verbose, false, rng, fmt.Sprintf(format, args...))
}

// Messages returns every diagnostic in insertion order. The returned slice
// must not be mutated by callers.
func (b *Bag) Messages() []Message {
	return b.messages
}

// HasErrors reports whether any message of kind Error has been pushed.
func (b *Bag) HasErrors() bool {
	for _, m := range b.messages {
		if m.Kind == Error {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of messages of kind Error.
func (b *Bag) ErrorCount() int {
	n := 0
	for _, m := range b.messages {
		if m.Kind == Error {
			n++
		}
	}
	return n
}
