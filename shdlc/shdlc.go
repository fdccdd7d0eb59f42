// Package shdlc implements a channel.Channel for devices speaking the SHDLC serial
// protocol.
//
// Frame encoding, byte stuffing and the frame checksum are handled by the Port.
// The channel validates the echoed address and command id and interprets the
// device state byte: bit 7 flags a device error state, the low 7 bits carry the
// error code of the command.
package shdlc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-sensoradapter/channel"
	"github.com/arloliu/go-sensoradapter/descriptor"
	"github.com/arloliu/go-sensoradapter/logger"
)

// DefaultFrameDelay is the minimum response timeout of a transfer.
const DefaultFrameDelay = 50 * time.Millisecond

const (
	stateErrorFlag = 0x80
	stateCodeMask  = 0x7f
)

// Response is a decoded MISO frame.
type Response struct {
	Address   uint8
	CommandID uint8
	State     uint8
	Data      []byte
}

// ErrorFlag reports whether the device signals an error state.
func (r *Response) ErrorFlag() bool {
	return r.State&stateErrorFlag != 0
}

// ErrorCode returns the error code of the executed command, 0 on success.
func (r *Response) ErrorCode() uint8 {
	return r.State & stateCodeMask
}

// Port is the SHDLC transport, e.g. a serial port with SHDLC framing.
type Port interface {
	// Transceive sends a MOSI frame and waits up to timeout for the MISO frame.
	Transceive(ctx context.Context, address, commandID uint8, data []byte, timeout time.Duration) (*Response, error)
}

// Channel talks to one SHDLC device address over a Port.
type Channel struct {
	port       Port
	address    uint8
	frameDelay time.Duration
	logger     logger.Logger
	metrics    channel.Metrics
}

var (
	_ channel.Channel         = (*Channel)(nil)
	_ channel.MetricsProvider = (*Channel)(nil)
)

// Option is a functional option for New.
type Option interface {
	apply(*Channel) error
}

type optFunc func(*Channel) error

func (f optFunc) apply(c *Channel) error { return f(c) }

// WithAddress sets the device address. The default is 0.
func WithAddress(address uint8) Option {
	return optFunc(func(c *Channel) error {
		c.address = address
		return nil
	})
}

// WithFrameDelay sets the minimum response timeout. The default is DefaultFrameDelay.
func WithFrameDelay(d time.Duration) Option {
	return optFunc(func(c *Channel) error {
		if d < 0 {
			return fmt.Errorf("shdlc: frame delay %v must not be negative", d)
		}
		c.frameDelay = d

		return nil
	})
}

// WithLogger sets the logger. The default is logger.GetLogger().
func WithLogger(l logger.Logger) Option {
	return optFunc(func(c *Channel) error {
		if l == nil {
			return errors.New("shdlc: logger is nil")
		}
		c.logger = l

		return nil
	})
}

// New creates a channel on port.
// The channel owns port, Close closes it when it implements io.Closer.
func New(port Port, opts ...Option) (*Channel, error) {
	if port == nil {
		return nil, errors.New("shdlc: port is nil")
	}

	c := &Channel{
		port:       port,
		frameDelay: DefaultFrameDelay,
		logger:     logger.GetLogger(),
	}
	for _, opt := range opts {
		if err := opt.apply(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Address returns the default device address.
func (c *Channel) Address() uint8 {
	return c.address
}

// Metrics returns the channel metrics.
func (c *Channel) Metrics() *channel.Metrics {
	return &c.metrics
}

// WriteRead performs one SHDLC transfer.
//
// The first byte of req.TxData is the command id, the rest is sent as frame data.
// The response timeout is max(req.BusyDelay, frame delay). A response whose echoed
// address or command id does not match fails with a *ResponseError, a nonzero
// device error code fails with a *DeviceError. Response data is decoded with
// UnpackDynamic since counted fields of SHDLC responses are upper bounds.
//
// With req.IgnoreErrors, transport and device errors are logged and nil is
// returned. A *ResponseError is never ignored.
func (c *Channel) WriteRead(ctx context.Context, req *channel.Request) (descriptor.Values, error) {
	c.metrics.IncTransfer()

	values, err := c.writeRead(ctx, req)
	if err == nil {
		return values, nil
	}

	ignored := req.IgnoreErrors && ctx.Err() == nil && !errors.Is(err, ErrResponse) && !errors.Is(err, ErrCommandWidth)
	c.metrics.ObserveError(err, ignored)
	if ignored {
		c.logger.Debug("shdlc transfer error ignored", "address", c.address, "error", err)
		return nil, nil
	}

	return nil, err
}

func (c *Channel) writeRead(ctx context.Context, req *channel.Request) (descriptor.Values, error) {
	if req.PayloadOffset != 1 || len(req.TxData) < 1 {
		return nil, fmt.Errorf("%w: payload offset %d", ErrCommandWidth, req.PayloadOffset)
	}

	address := c.address
	if req.HasAddress {
		if req.Address > 0xff {
			return nil, fmt.Errorf("shdlc: address 0x%X out of range", req.Address)
		}
		address = uint8(req.Address)
	}

	cmdID := req.TxData[0]
	data := req.TxData[1:]
	timeout := req.Wait(c.frameDelay)

	c.logger.Debug("shdlc transceive", "address", address, "command", cmdID, "data", data, "timeout", timeout)
	resp, err := c.port.Transceive(ctx, address, cmdID, data, timeout)
	if err != nil {
		return nil, fmt.Errorf("shdlc: transceive command 0x%02X: %w", cmdID, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response to command 0x%02X", ErrResponse, cmdID)
	}
	c.metrics.AddWritten(len(req.TxData))
	c.metrics.AddRead(len(resp.Data))

	if resp.Address != address {
		return nil, &ResponseError{Field: "address", Expected: address, Received: resp.Address}
	}
	if resp.CommandID != cmdID {
		return nil, &ResponseError{Field: "command id", Expected: cmdID, Received: resp.CommandID}
	}

	if resp.ErrorFlag() {
		c.logger.Warn("shdlc device is in error state", "address", address, "state", resp.State)
	}
	if code := resp.ErrorCode(); code != 0 {
		c.logger.Warn("shdlc device returned error", "address", address, "command", cmdID, "code", code)
		return nil, &DeviceError{Address: address, Code: code}
	}

	if req.Response == nil {
		return nil, nil
	}

	return req.Response.UnpackDynamic(resp.Data)
}

// Close releases the port when it implements io.Closer.
func (c *Channel) Close() error {
	return channel.Close(c.port)
}
