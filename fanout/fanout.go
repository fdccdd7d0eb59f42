// Package fanout runs one function per member of an ordered set, sequentially or
// with one goroutine per member, and collects results in member order.
//
// Every member runs even when others fail. Failures are reported together as an
// *Error after all members have finished, and the results of the members that
// succeeded are still returned.
package fanout

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
)

// Mode selects how members are executed.
type Mode int

const (
	// Sequential runs members one after another in index order.
	Sequential Mode = iota
	// Concurrent runs every member in its own goroutine and joins them all.
	Concurrent
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Concurrent:
		return "concurrent"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "sequential" or "concurrent", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential":
		return Sequential, nil
	case "concurrent", "parallel":
		return Concurrent, nil
	default:
		return Sequential, fmt.Errorf("fanout: unknown mode %q", s)
	}
}

// Func is invoked once per member index.
type Func[T any] func(ctx context.Context, index int) (T, error)

// Run invokes fn for every index in [0, n) according to mode.
//
// Element i of the returned slice always holds the result of index i, regardless
// of completion order. A failed or panicking index leaves the zero value of T in
// its slot. If any index fails, the returned error is an *Error.
func Run[T any](ctx context.Context, mode Mode, n int, fn Func[T]) ([]T, error) {
	results := make([]T, n)
	errs := make([]error, n)

	switch mode {
	case Concurrent:
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = call(ctx, i, fn)
			}(i)
		}
		wg.Wait()

	default:
		for i := 0; i < n; i++ {
			results[i], errs[i] = call(ctx, i, fn)
		}
	}

	return results, collect(errs)
}

// call runs fn for one index and converts a panic into a *PanicError.
func call[T any](ctx context.Context, index int, fn Func[T]) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	return fn(ctx, index)
}

func collect(errs []error) error {
	var failures []Failure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, Failure{Index: i, Err: err})
		}
	}
	if len(failures) == 0 {
		return nil
	}

	return &Error{Failures: failures}
}
