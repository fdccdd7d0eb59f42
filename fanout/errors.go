package fanout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPanic is matched by every *PanicError.
var ErrPanic = errors.New("fanout: member panicked")

// Failure is the error of one member.
type Failure struct {
	Index int
	Err   error
}

// Error aggregates the failures of a fan-out, ordered by index.
type Error struct {
	Failures []Failure
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fanout: %d member(s) failed", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&sb, "; [%d] %v", f.Index, f.Err)
	}

	return sb.String()
}

// Unwrap returns the member errors so errors.Is and errors.As see all of them.
func (e *Error) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}

	return errs
}

// Failed returns the indexes of the failed members in ascending order.
func (e *Error) Failed() []int {
	idx := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		idx[i] = f.Index
	}

	return idx
}

// ErrAt returns the error of member index, or nil if it succeeded.
func (e *Error) ErrAt(index int) error {
	for _, f := range e.Failures {
		if f.Index == index {
			return f.Err
		}
	}

	return nil
}

// PanicError wraps a value recovered from a panicking member.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("fanout: member panicked: %v", e.Value)
}

// Is makes errors.Is(err, ErrPanic) report true.
func (e *PanicError) Is(target error) bool {
	return target == ErrPanic
}
