package descriptor

import (
	"errors"
	"fmt"
	"time"
)

// TxData describes the transmit half of a command: the command id, the layout of
// command id plus arguments, and the timing and addressing metadata of the transfer.
//
// A TxData is stateless once constructed and is typically declared once per command
// as a package level variable.
type TxData struct {
	cmdID        uint16
	desc         *Descriptor
	commandWidth int
	busyDelay    time.Duration
	address      uint16
	hasAddress   bool
	ignoreAck    bool
}

// TxOption is a functional option for NewTxData.
type TxOption interface {
	applyTx(*TxData) error
}

type txOptFunc func(*TxData) error

func (f txOptFunc) applyTx(tx *TxData) error { return f(tx) }

// WithBusyDelay sets the time the device needs after receiving the command before
// it can be read.
func WithBusyDelay(d time.Duration) TxOption {
	return txOptFunc(func(tx *TxData) error {
		if d < 0 {
			return errors.New("descriptor: busy delay must not be negative")
		}
		tx.busyDelay = d

		return nil
	})
}

// WithAddress overrides the target address of the channel for this command.
func WithAddress(address uint16) TxOption {
	return txOptFunc(func(tx *TxData) error {
		tx.address = address
		tx.hasAddress = true

		return nil
	})
}

// WithIgnoreAck marks the command as one whose failure is expected and ignored,
// e.g. a reset command the device does not acknowledge.
func WithIgnoreAck(ignore bool) TxOption {
	return txOptFunc(func(tx *TxData) error {
		tx.ignoreAck = ignore
		return nil
	})
}

// NewTxData creates a TxData for the command cmdID.
//
// The first field of layout is the command id itself: ">B..." selects a one byte
// command, ">H..." a two byte command. The remaining fields describe the arguments.
func NewTxData(cmdID uint16, layout string, opts ...TxOption) (*TxData, error) {
	desc, err := Parse(layout)
	if err != nil {
		return nil, err
	}

	fields := desc.fields
	if len(fields) == 0 || (fields[0].Kind != KindUint8 && fields[0].Kind != KindUint16) || fields[0].Count != 1 {
		return nil, fmt.Errorf("%w: %q must start with a single B or H command id", ErrInvalidLayout, layout)
	}

	tx := &TxData{cmdID: cmdID, desc: desc, commandWidth: fields[0].Kind.Width()}
	if tx.commandWidth == 1 && cmdID > 0xff {
		return nil, fmt.Errorf("%w: command id 0x%X does not fit the one byte command of %q", ErrInvalidLayout, cmdID, layout)
	}

	for _, opt := range opts {
		if err := opt.applyTx(tx); err != nil {
			return nil, err
		}
	}

	return tx, nil
}

// MustTxData is like NewTxData but panics on error.
func MustTxData(cmdID uint16, layout string, opts ...TxOption) *TxData {
	tx, err := NewTxData(cmdID, layout, opts...)
	if err != nil {
		panic(err)
	}
	return tx
}

// Pack serializes the command id followed by args.
func (tx *TxData) Pack(args ...any) ([]byte, error) {
	values := make([]any, 0, len(args)+1)
	values = append(values, tx.cmdID)
	values = append(values, args...)

	return tx.desc.Pack(values...)
}

// CommandID returns the command id.
func (tx *TxData) CommandID() uint16 { return tx.cmdID }

// CommandWidth returns the byte width of the command id, 1 or 2.
// A nil TxData has width 0.
func (tx *TxData) CommandWidth() int {
	if tx == nil {
		return 0
	}
	return tx.commandWidth
}

// Descriptor returns the layout of command id plus arguments.
func (tx *TxData) Descriptor() *Descriptor { return tx.desc }

// BusyDelay returns the device busy delay. A nil TxData has no delay.
func (tx *TxData) BusyDelay() time.Duration {
	if tx == nil {
		return 0
	}
	return tx.busyDelay
}

// Address returns the address override and whether one is set.
func (tx *TxData) Address() (uint16, bool) {
	if tx == nil {
		return 0, false
	}
	return tx.address, tx.hasAddress
}

// IgnoreAck reports whether failures of this command are ignored.
func (tx *TxData) IgnoreAck() bool {
	if tx == nil {
		return false
	}
	return tx.ignoreAck
}

// RxData describes the expected response of a command.
//
// A nil *RxData is valid and means that no response is expected.
type RxData struct {
	desc       *Descriptor
	convertInt bool
	bitWidth   int
}

// RxOption is a functional option for NewRxData.
type RxOption interface {
	applyRx(*RxData) error
}

type rxOptFunc func(*RxData) error

func (f rxOptFunc) applyRx(rx *RxData) error { return f(rx) }

// WithConvertToInt folds the decoded fields into one big-endian *big.Int.
// The layout must consist of fields of one unsigned kind, e.g. ">6B" or ">2I".
func WithConvertToInt() RxOption {
	return rxOptFunc(func(rx *RxData) error {
		bits, ok := rx.desc.uniformUnsigned()
		if !ok {
			return fmt.Errorf("%w: %q cannot be converted to an integer, fields must share one unsigned type",
				ErrInvalidLayout, rx.desc.layout)
		}
		rx.convertInt = true
		rx.bitWidth = bits

		return nil
	})
}

// NewRxData creates a response descriptor from layout.
func NewRxData(layout string, opts ...RxOption) (*RxData, error) {
	desc, err := Parse(layout)
	if err != nil {
		return nil, err
	}

	rx := &RxData{desc: desc}
	for _, opt := range opts {
		if err := opt.applyRx(rx); err != nil {
			return nil, err
		}
	}

	return rx, nil
}

// MustRxData is like NewRxData but panics on error.
func MustRxData(layout string, opts ...RxOption) *RxData {
	rx, err := NewRxData(layout, opts...)
	if err != nil {
		panic(err)
	}
	return rx
}

// Length returns the static byte length of the response, 0 for a nil RxData.
// Transports use it to size reads.
func (rx *RxData) Length() int {
	if rx == nil {
		return 0
	}
	return rx.desc.Size()
}

// Descriptor returns the response layout.
func (rx *RxData) Descriptor() *Descriptor { return rx.desc }

// ConvertsToInt reports whether the response is folded into one integer.
func (rx *RxData) ConvertsToInt() bool { return rx != nil && rx.convertInt }

// Unpack decodes a response of exactly Length() bytes.
func (rx *RxData) Unpack(data []byte) (Values, error) {
	values, err := rx.desc.Unpack(data)
	if err != nil {
		return nil, err
	}

	return rx.postProcess(values)
}

// UnpackDynamic decodes a response whose counted fields are upper bounds.
func (rx *RxData) UnpackDynamic(data []byte) (Values, error) {
	values, err := rx.desc.UnpackDynamic(data)
	if err != nil {
		return nil, err
	}

	return rx.postProcess(values)
}

func (rx *RxData) postProcess(values Values) (Values, error) {
	if !rx.convertInt {
		return values, nil
	}

	n, err := ConcatUint(rx.bitWidth, values)
	if err != nil {
		return nil, err
	}

	return Values{n}, nil
}
