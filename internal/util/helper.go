package util

import (
	"math"
	"strconv"
)

// CloneSlice clones slice with cloneSize.
// This function will use src length as the clone size if cloneSize is 0.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

// ToUint64 converts an integer-like value to uint64.
//
// Supported types:
//   - Unsigned integers: uint, uint8, uint16, uint32, uint64
//   - Signed integers (>= 0): int, int8, int16, int32, int64
//   - A string holding a non-negative integer in any base accepted by strconv.ParseUint with base 0
//
// The second return value is false when the type is not supported or a signed value is negative.
func ToUint64(value any) (uint64, bool) { //nolint:cyclop
	switch v := value.(type) {
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case int:
		return uint64(v), v >= 0
	case int8:
		return uint64(v), v >= 0 //nolint:gosec
	case int16:
		return uint64(v), v >= 0 //nolint:gosec
	case int32:
		return uint64(v), v >= 0 //nolint:gosec
	case int64:
		return uint64(v), v >= 0 //nolint:gosec
	case string:
		u, err := strconv.ParseUint(v, 0, 64)
		return u, err == nil
	default:
		return 0, false
	}
}

// ToInt64 converts an integer-like value to int64.
//
// Unsigned values above math.MaxInt64 and unsupported types report false.
func ToInt64(value any) (int64, bool) { //nolint:cyclop
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), uint64(v) <= math.MaxInt64 //nolint:gosec
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64 //nolint:gosec
	case string:
		i, err := strconv.ParseInt(v, 0, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// ToFloat64 converts a float or integer value to float64.
//
// The conversion may lose precision for integers beyond 2^53.
func ToFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}

	if i, ok := ToInt64(value); ok {
		return float64(i), true
	}
	if u, ok := ToUint64(value); ok {
		return float64(u), true
	}

	return 0, false
}
