package descriptor

import (
	"fmt"
	"math/big"

	"github.com/arloliu/go-sensoradapter/internal/util"
)

// Values holds decoded values in layout order.
//
// Element types are uint8, uint16, uint32, uint64, int8, int16, int32, int64, bool,
// []byte, float32, float64 and *big.Int (integer concatenation). A multi-channel
// channel returns Values whose elements are the Values of each member channel.
type Values []any

// Len returns the number of values.
func (v Values) Len() int {
	return len(v)
}

// Get returns the raw value at index i.
func (v Values) Get(i int) (any, error) {
	if i < 0 || i >= len(v) {
		return nil, fmt.Errorf("%w: index %d, length %d", ErrValueIndex, i, len(v))
	}

	return v[i], nil
}

// Uint64 returns the value at index i as uint64.
//
// Signed values must be non-negative and *big.Int values must fit into 64 bits.
func (v Values) Uint64(i int) (uint64, error) {
	val, err := v.Get(i)
	if err != nil {
		return 0, err
	}

	if b, ok := val.(*big.Int); ok {
		if b.Sign() < 0 || !b.IsUint64() {
			return 0, fmt.Errorf("%w: %s does not fit uint64", ErrValueType, b)
		}
		return b.Uint64(), nil
	}

	u, ok := util.ToUint64(val)
	if !ok {
		return 0, fmt.Errorf("%w: %T at index %d is not an unsigned integer", ErrValueType, val, i)
	}

	return u, nil
}

// Int64 returns the value at index i as int64.
func (v Values) Int64(i int) (int64, error) {
	val, err := v.Get(i)
	if err != nil {
		return 0, err
	}

	if b, ok := val.(*big.Int); ok {
		if !b.IsInt64() {
			return 0, fmt.Errorf("%w: %s does not fit int64", ErrValueType, b)
		}
		return b.Int64(), nil
	}

	n, ok := util.ToInt64(val)
	if !ok {
		return 0, fmt.Errorf("%w: %T at index %d is not an integer", ErrValueType, val, i)
	}

	return n, nil
}

// BigInt returns the value at index i as *big.Int. Fixed width integers are converted.
func (v Values) BigInt(i int) (*big.Int, error) {
	val, err := v.Get(i)
	if err != nil {
		return nil, err
	}

	if b, ok := val.(*big.Int); ok {
		return new(big.Int).Set(b), nil
	}
	if u, ok := util.ToUint64(val); ok {
		return new(big.Int).SetUint64(u), nil
	}
	if n, ok := util.ToInt64(val); ok {
		return big.NewInt(n), nil
	}

	return nil, fmt.Errorf("%w: %T at index %d is not an integer", ErrValueType, val, i)
}

// Float64 returns the value at index i as float64.
func (v Values) Float64(i int) (float64, error) {
	val, err := v.Get(i)
	if err != nil {
		return 0, err
	}

	if _, isStr := val.(string); !isStr {
		if f, ok := util.ToFloat64(val); ok {
			return f, nil
		}
	}

	return 0, fmt.Errorf("%w: %T at index %d is not a number", ErrValueType, val, i)
}

// Bool returns the boolean value at index i.
func (v Values) Bool(i int) (bool, error) {
	val, err := v.Get(i)
	if err != nil {
		return false, err
	}

	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %T at index %d is not a boolean", ErrValueType, val, i)
	}

	return b, nil
}

// Bytes returns the blob value at index i.
func (v Values) Bytes(i int) ([]byte, error) {
	val, err := v.Get(i)
	if err != nil {
		return nil, err
	}

	b, ok := val.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: %T at index %d is not a blob", ErrValueType, val, i)
	}

	return b, nil
}

// Text returns the blob value at index i as a string.
func (v Values) Text(i int) (string, error) {
	b, err := v.Bytes(i)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// Channel returns the Values produced by member channel i of a multi-channel result.
// A nil entry (ignored failure or no response) yields nil Values.
func (v Values) Channel(i int) (Values, error) {
	val, err := v.Get(i)
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, nil
	}

	sub, ok := val.(Values)
	if !ok {
		return nil, fmt.Errorf("%w: %T at index %d is not a channel result", ErrValueType, val, i)
	}

	return sub, nil
}
