package descriptor

import (
	"fmt"
	"math/big"
)

// ConcatUint folds unsigned values into one big-endian integer:
//
//	result = Σ values[i] << (bitWidth × (n-1-i))
//
// so values[0] holds the most significant digit.
func ConcatUint(bitWidth int, values Values) (*big.Int, error) {
	result := new(big.Int)
	digit := new(big.Int)

	for i := range values {
		u, err := values.Uint64(i)
		if err != nil {
			return nil, err
		}
		if bitWidth < 64 && u >= 1<<bitWidth {
			return nil, fmt.Errorf("%w: value %d at index %d exceeds %d bits", ErrValueType, u, i, bitWidth)
		}
		result.Lsh(result, uint(bitWidth)) //nolint:gosec
		result.Or(result, digit.SetUint64(u))
	}

	return result, nil
}
