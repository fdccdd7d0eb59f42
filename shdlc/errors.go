package shdlc

import (
	"errors"
	"fmt"
)

var (
	// ErrDevice is matched by every *DeviceError.
	ErrDevice = errors.New("shdlc: device error")
	// ErrResponse is matched by every *ResponseError.
	ErrResponse = errors.New("shdlc: unexpected response")
	// ErrCommandWidth is returned when a request does not start with a one byte command id.
	ErrCommandWidth = errors.New("shdlc: command id must be one byte")
)

// DeviceError is a nonzero error code reported in the state byte of a response.
type DeviceError struct {
	Address uint8
	Code    uint8
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("shdlc: device 0x%02X returned error code %d (0x%02X)", e.Address, e.Code, e.Code)
}

// Is makes errors.Is(err, ErrDevice) report true.
func (e *DeviceError) Is(target error) bool {
	return target == ErrDevice
}

// ResponseError reports a response whose echoed address or command id does not
// match the request.
type ResponseError struct {
	Field    string
	Expected uint8
	Received uint8
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("shdlc: received %s 0x%02X instead of 0x%02X", e.Field, e.Received, e.Expected)
}

// Is makes errors.Is(err, ErrResponse) report true.
func (e *ResponseError) Is(target error) bool {
	return target == ErrResponse
}
