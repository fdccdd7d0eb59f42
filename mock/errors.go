package mock

import (
	"errors"
	"fmt"
)

var (
	// ErrAddress is matched by every *AddressError.
	ErrAddress = errors.New("mock: unsupported address")
	// ErrNoRequest is returned by a read without a preceding write.
	ErrNoRequest = errors.New("mock: read without pending command")
	// ErrNoSubcommand is returned when a command with sub-command responses is sent without data.
	ErrNoSubcommand = errors.New("mock: no sub-command specified")
)

// AddressError reports a request sent to an address the mock does not own.
type AddressError struct {
	Expected uint16
	Received uint16
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("mock: unsupported address 0x%02X, device address is 0x%02X", e.Received, e.Expected)
}

// Is makes errors.Is(err, ErrAddress) report true.
func (e *AddressError) Is(target error) bool {
	return target == ErrAddress
}
