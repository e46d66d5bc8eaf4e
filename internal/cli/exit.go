package cli

import (
	"errors"
	"fmt"
)

// ErrUnmatchedNames is wrapped when one or more requested variants do not exist.
var ErrUnmatchedNames = errors.New("no keycap matched some requested names")

// ExitError carries a process exit code for main to use.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit code for err: 0 for nil, the carried code for an
// *ExitError anywhere in the chain, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
