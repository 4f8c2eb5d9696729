// Package invariant implements the "internal invariants" error category:
// violations that are bugs, not user errors, and therefore abort the
// compiler rather than accumulate as a diagnostic. Error carries a message;
// Panicf raises one. cmd/nlc is the sole recoverer, at the top of main,
// converting a recovered Error into an exit code for the CLI while library
// callers see the panic directly.
package invariant

import "fmt"

// Error is raised only for conditions that abort compilation instead of
// producing a diagnostic: a non-decreasing unresolved count across a
// type-resolution pass, an expression left without a type after resolution
// claims success, an unreachable match arm. The first of these is reachable
// from user source: a dependency cycle between constants (`const a = b;
// const b = a;`) passes identifier resolution and raises it.
type Error struct {
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("🤖 InvariantError: %s", e.Message)
}

// Panicf raises an Error with a formatted message.
func Panicf(format string, args ...any) {
	panic(Error{Message: fmt.Sprintf(format, args...)})
}
