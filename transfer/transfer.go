// Package transfer binds command descriptors to argument values and executes
// sequences of them on a channel.
package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/go-sensoradapter/channel"
	"github.com/arloliu/go-sensoradapter/descriptor"
)

// ErrNoTransfers is returned by Execute when called without transfers.
var ErrNoTransfers = errors.New("transfer: no transfers to execute")

// Transfer is one command invocation: a TxData/RxData pair bound to argument values.
//
// Tx may return nil for a read-only transfer and Rx may return nil when no
// response is expected.
type Transfer interface {
	Tx() *descriptor.TxData
	Rx() *descriptor.RxData
	// Pack returns the bytes to send, command id included.
	Pack() ([]byte, error)
}

type basicTransfer struct {
	tx   *descriptor.TxData
	rx   *descriptor.RxData
	args []any
}

// New returns a Transfer sending tx with args and expecting rx.
func New(tx *descriptor.TxData, rx *descriptor.RxData, args ...any) Transfer {
	return &basicTransfer{tx: tx, rx: rx, args: args}
}

func (t *basicTransfer) Tx() *descriptor.TxData { return t.tx }

func (t *basicTransfer) Rx() *descriptor.RxData { return t.rx }

func (t *basicTransfer) Pack() ([]byte, error) {
	if t.tx == nil {
		if len(t.args) > 0 {
			return nil, fmt.Errorf("%w: %d arguments for a read-only transfer", descriptor.ErrEncoding, len(t.args))
		}
		return nil, nil
	}

	return t.tx.Pack(t.args...)
}

// Execute runs transfers on ch in order and returns the decoded response of the
// last one.
//
// All transfers but the last are sent without a response descriptor, so their
// replies are not read. Each transfer uses its own busy delay, address override and
// ignore flag. A failing transfer whose TxData ignores acknowledgment is skipped and
// execution continues; any other failure stops the sequence. Values returned by the
// channel together with an error, such as the partial results of a MultiChannel,
// are passed through.
func Execute(ctx context.Context, ch channel.Channel, transfers ...Transfer) (descriptor.Values, error) {
	if len(transfers) == 0 {
		return nil, ErrNoTransfers
	}

	last := len(transfers) - 1
	for i, t := range transfers {
		data, err := t.Pack()
		if err != nil {
			return nil, fmt.Errorf("transfer %d: %w", i, err)
		}

		var rx *descriptor.RxData
		if i == last {
			rx = t.Rx()
		}
		req := channel.NewRequest(t.Tx(), data, rx)

		values, err := ch.WriteRead(ctx, req)
		if err != nil {
			if req.IgnoreErrors && ctx.Err() == nil {
				continue
			}
			return values, fmt.Errorf("transfer %d: %w", i, err)
		}

		if i == last {
			return values, nil
		}
	}

	return nil, nil
}
