// Package record records the exchanges of an I2C bus to a CBOR stream and replays
// them, so that drivers can be tested against captured hardware traffic.
//
// A recording is a Header followed by one Exchange per bus operation.
package record

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Op is the kind of a recorded bus operation.
type Op uint8

const (
	OpWrite Op = iota + 1
	OpRead
)

func (op Op) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	default:
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
}

// Header starts a recording.
type Header struct {
	Session     string    `cbor:"1,keyasint"`
	Created     time.Time `cbor:"2,keyasint"`
	Description string    `cbor:"3,keyasint,omitempty"`
}

// Exchange is one recorded bus operation.
type Exchange struct {
	Seq     uint64 `cbor:"1,keyasint"`
	Op      Op     `cbor:"2,keyasint"`
	Address uint16 `cbor:"3,keyasint"`
	// Data is the written frame or the bytes returned by a read.
	Data []byte `cbor:"4,keyasint,omitempty"`
	// Length is the requested length of a read.
	Length int `cbor:"5,keyasint,omitempty"`
	// Error is the message of the error returned by the bus, if any.
	Error string        `cbor:"6,keyasint,omitempty"`
	Time  time.Time     `cbor:"7,keyasint"`
	Took  time.Duration `cbor:"8,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create record CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create record CBOR decoder mode: %v", err))
	}
}
