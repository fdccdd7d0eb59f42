// Package channel defines the Channel abstraction used by the transfer executor,
// the Request it carries, per-channel metrics, and MultiChannel, which fans one
// request out to an ordered set of channels.
package channel

import (
	"context"
	"io"
	"time"

	"github.com/arloliu/go-sensoradapter/descriptor"
)

// Channel performs one command/response round trip with a device.
//
// A Channel is not safe for concurrent use.
type Channel interface {
	// WriteRead sends req.TxData, waits for the busy delay, reads and decodes the
	// response described by req.Response. It returns nil Values when no response
	// is expected or when an error was ignored because req.IgnoreErrors is set.
	WriteRead(ctx context.Context, req *Request) (descriptor.Values, error)
}

// Request is one round trip on a Channel.
type Request struct {
	// TxData is the packed command id followed by the packed arguments.
	TxData []byte
	// PayloadOffset is the number of leading command bytes that carry no checksum.
	PayloadOffset int
	// Response describes the expected response. Nil means no response is read.
	Response *descriptor.RxData
	// BusyDelay is the time the device needs before it can be read.
	BusyDelay time.Duration
	// Address overrides the channel address when HasAddress is true.
	Address    uint16
	HasAddress bool
	// IgnoreErrors swallows transport and device errors; nil Values are returned instead.
	IgnoreErrors bool
}

// NewRequest builds a Request for tx with the packed bytes data.
// The busy delay, address override and ignore flag are taken from tx.
func NewRequest(tx *descriptor.TxData, data []byte, rx *descriptor.RxData) *Request {
	addr, hasAddr := tx.Address()

	return &Request{
		TxData:        data,
		PayloadOffset: tx.CommandWidth(),
		Response:      rx,
		BusyDelay:     tx.BusyDelay(),
		Address:       addr,
		HasAddress:    hasAddr,
		IgnoreErrors:  tx.IgnoreAck(),
	}
}

// ResolveAddress returns the request address override, or def when none is set.
func (r *Request) ResolveAddress(def uint16) uint16 {
	if r.HasAddress {
		return r.Address
	}
	return def
}

// Wait returns the larger of the request busy delay and frameDelay.
func (r *Request) Wait(frameDelay time.Duration) time.Duration {
	return max(r.BusyDelay, frameDelay)
}

// Close releases handle when it implements io.Closer.
func Close(handle any) error {
	if c, ok := handle.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
