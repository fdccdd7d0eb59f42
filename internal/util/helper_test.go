package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneSlice(t *testing.T) {
	require := require.New(t)

	src := []byte{1, 2, 3}
	clone := CloneSlice(src, 0)
	require.Equal(src, clone)
	clone[0] = 9
	require.Equal(byte(1), src[0], "clone must not alias the source")

	require.Equal([]byte{1, 2, 3, 0}, CloneSlice(src, 4))
	require.Equal([]byte{}, CloneSlice([]byte(nil), 0))
}

func TestToUint64(t *testing.T) {
	tests := []struct {
		input any
		want  uint64
		ok    bool
	}{
		{uint8(0xff), 0xff, true},
		{uint64(math.MaxUint64), math.MaxUint64, true},
		{int(42), 42, true},
		{int16(-1), 0, false},
		{"0x2619", 0x2619, true},
		{"-3", 0, false},
		{1.5, 0, false},
		{true, 0, false},
	}

	for _, tt := range tests {
		got, ok := ToUint64(tt.input)
		require.Equal(t, tt.ok, ok, "input %#v", tt.input)
		if tt.ok {
			require.Equal(t, tt.want, got, "input %#v", tt.input)
		}
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		input any
		want  int64
		ok    bool
	}{
		{int8(-128), -128, true},
		{uint32(math.MaxUint32), math.MaxUint32, true},
		{uint64(math.MaxUint64), 0, false},
		{"-0x10", -16, true},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		got, ok := ToInt64(tt.input)
		require.Equal(t, tt.ok, ok, "input %#v", tt.input)
		if tt.ok {
			require.Equal(t, tt.want, got, "input %#v", tt.input)
		}
	}
}

func TestToFloat64(t *testing.T) {
	require := require.New(t)

	f, ok := ToFloat64(float32(1.5))
	require.True(ok)
	require.InDelta(1.5, f, 0)

	f, ok = ToFloat64(uint64(math.MaxUint64))
	require.True(ok)
	require.InDelta(float64(math.MaxUint64), f, 1)

	f, ok = ToFloat64("2.25")
	require.True(ok)
	require.InDelta(2.25, f, 0)

	_, ok = ToFloat64([]byte{1})
	require.False(ok)
}
