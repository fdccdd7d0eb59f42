package mock

import (
	"math/rand/v2"
)

// ResponseProvider produces the response data of an emulated sensor.
type ResponseProvider interface {
	// ID identifies the provider in log output.
	ID() string
	// HandleCommand returns the response to cmdID with argument data, checksums
	// already removed. length is the number of bytes the host expects; it is an
	// upper bound for protocols with variable length responses.
	HandleCommand(cmdID uint16, data []byte, length int) ([]byte, error)
}

// RandomResponse answers every command with random bytes of the expected length.
type RandomResponse struct{}

var _ ResponseProvider = RandomResponse{}

func (RandomResponse) ID() string {
	return "random_default"
}

func (RandomResponse) HandleCommand(_ uint16, _ []byte, length int) ([]byte, error) {
	return RandomBytes(length), nil
}

// RandomBytes returns n random bytes.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rand.IntN(256)) //nolint:gosec
	}

	return b
}

// RandomASCII returns n random printable ASCII characters.
func RandomASCII(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(32 + rand.IntN(95)) //nolint:gosec
	}

	return b
}

// PaddedASCII returns s padded with zero bytes to n bytes. Longer strings are truncated.
func PaddedASCII(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)

	return b
}

// fit zero-pads or truncates data to n bytes.
func fit(data []byte, n int) []byte {
	if len(data) == n {
		return data
	}
	out := make([]byte, n)
	copy(out, data)

	return out
}
