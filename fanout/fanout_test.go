package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errMember = errors.New("member failed")

func TestRun_PreservesOrder(t *testing.T) {
	require := require.New(t)

	for _, mode := range []Mode{Sequential, Concurrent} {
		for _, n := range []int{1, 2, 4} {
			t.Logf("Test #%s n=%d", mode, n)

			results, err := Run(context.Background(), mode, n, func(_ context.Context, i int) (string, error) {
				// later indexes finish first in concurrent mode
				time.Sleep(time.Duration(n-i) * 5 * time.Millisecond)
				return fmt.Sprintf("channel-%d", i), nil
			})
			require.NoError(err)
			require.Len(results, n)
			for i, r := range results {
				require.Equal(fmt.Sprintf("channel-%d", i), r)
			}
		}
	}
}

func TestRun_PartialFailure(t *testing.T) {
	require := require.New(t)

	for _, mode := range []Mode{Sequential, Concurrent} {
		t.Logf("Test #%s", mode)

		var calls atomic.Int32
		results, err := Run(context.Background(), mode, 4, func(_ context.Context, i int) (int, error) {
			calls.Add(1)
			if i == 1 || i == 3 {
				return 0, fmt.Errorf("index %d: %w", i, errMember)
			}
			return i * 10, nil
		})

		require.Equal(int32(4), calls.Load())
		require.Equal([]int{0, 0, 20, 0}, results)
		require.ErrorIs(err, errMember)

		var fanErr *Error
		require.ErrorAs(err, &fanErr)
		require.Equal([]int{1, 3}, fanErr.Failed())
		require.NoError(fanErr.ErrAt(0))
		require.ErrorIs(fanErr.ErrAt(3), errMember)
		require.Contains(err.Error(), "[1]")
		require.Contains(err.Error(), "[3]")
	}
}

func TestRun_Panic(t *testing.T) {
	require := require.New(t)

	for _, mode := range []Mode{Sequential, Concurrent} {
		results, err := Run(context.Background(), mode, 3, func(_ context.Context, i int) (int, error) {
			if i == 2 {
				panic("boom")
			}
			return i + 1, nil
		})

		require.Equal([]int{1, 2, 0}, results)
		require.ErrorIs(err, ErrPanic)

		var fanErr *Error
		require.ErrorAs(err, &fanErr)
		require.Equal([]int{2}, fanErr.Failed())

		var panicErr *PanicError
		require.ErrorAs(err, &panicErr)
		require.Equal("boom", panicErr.Value)
		require.NotEmpty(panicErr.Stack)
	}
}

func TestRun_ConcurrentOverlaps(t *testing.T) {
	require := require.New(t)

	var running, peak atomic.Int32
	_, err := Run(context.Background(), Concurrent, 4, func(_ context.Context, _ int) (struct{}, error) {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		running.Add(-1)

		return struct{}{}, nil
	})
	require.NoError(err)
	require.Greater(peak.Load(), int32(1))
}

func TestRun_Empty(t *testing.T) {
	results, err := Run(context.Background(), Concurrent, 0, func(_ context.Context, _ int) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestParseMode(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		input     string
		expected  Mode
		expectErr bool
	}{
		{input: "", expected: Sequential},
		{input: "Sequential", expected: Sequential},
		{input: "concurrent", expected: Concurrent},
		{input: " parallel ", expected: Concurrent},
		{input: "random", expectErr: true},
	}

	for _, tt := range tests {
		mode, err := ParseMode(tt.input)
		if tt.expectErr {
			require.Error(err)
			continue
		}
		require.NoError(err)
		require.Equal(tt.expected, mode)
	}

	require.Equal("concurrent", Concurrent.String())
	require.Equal("Mode(7)", Mode(7).String())
}
