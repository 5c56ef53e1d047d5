package scroller

import (
	"errors"
	"fmt"
)

// Errors returned by scroller operations.
var (
	// ErrUnsupportedOperation indicates the hosting platform lacks the
	// engine capabilities view changes require.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrInvalidArgument indicates a rejected numeric input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoContent indicates there is nothing to scroll or zoom.
	ErrNoContent = errors.New("no content")

	// ErrDetached indicates no engine is attached or the scroller is closed.
	ErrDetached = errors.New("scroller detached")
)

// OperationError carries the failing operation and argument.
type OperationError struct {
	// Op is the public operation that failed.
	Op string
	// Target names the rejected argument or property.
	Target string
	// Err is the underlying sentinel.
	Err error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	return e.Err
}

func opError(op, target string, err error) error {
	return &OperationError{Op: op, Target: target, Err: err}
}
