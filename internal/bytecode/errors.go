package bytecode

import "fmt"

// RuntimeError is a VM execution failure, with an emoji-prefixed Error()
// string to make it visually distinct from a compile-time diagnostic.
type RuntimeError struct {
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: %s", e.Message)
}

func errorf(format string, args ...any) RuntimeError {
	return RuntimeError{Message: fmt.Sprintf(format, args...)}
}
