// Package i2c implements a channel.Channel for sensors on an I2C bus.
//
// Outgoing payload words are followed by a CRC-8 checksum byte, the command id is
// sent as is. Responses are read as 3-byte words, validated and stripped of their
// checksums before being decoded.
package i2c

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-sensoradapter/channel"
	"github.com/arloliu/go-sensoradapter/crc"
	"github.com/arloliu/go-sensoradapter/descriptor"
	"github.com/arloliu/go-sensoradapter/internal/pool"
	"github.com/arloliu/go-sensoradapter/logger"
)

const (
	// GeneralCallAddress is the I2C general call address.
	GeneralCallAddress uint16 = 0x00
	// GeneralCallResetCommand makes every device supporting general call reset itself.
	GeneralCallResetCommand byte = 0x06

	// MaxAddress is the largest 10-bit I2C address.
	MaxAddress uint16 = 0x3ff
)

// Bus is the physical I2C transport, e.g. a USB to I2C bridge.
type Bus interface {
	// Write writes data to the device at addr.
	Write(ctx context.Context, addr uint16, data []byte) error
	// Read reads n bytes from the device at addr.
	Read(ctx context.Context, addr uint16, n int) ([]byte, error)
}

// Channel talks to one I2C device address over a Bus.
type Channel struct {
	bus        Bus
	address    uint16
	checksum   crc.Func
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

// WithChecksum sets the checksum function of payload words.
// The default is the Sensirion CRC-8.
func WithChecksum(fn crc.Func) Option {
	return optFunc(func(c *Channel) error {
		if fn == nil {
			return errors.New("i2c: checksum function is nil, use WithoutChecksum")
		}
		c.checksum = fn

		return nil
	})
}

// WithoutChecksum disables checksum framing, data is sent and read as is.
func WithoutChecksum() Option {
	return optFunc(func(c *Channel) error {
		c.checksum = nil
		return nil
	})
}

// WithFrameDelay sets the minimum wait between the write and the read of a transfer.
func WithFrameDelay(d time.Duration) Option {
	return optFunc(func(c *Channel) error {
		if d < 0 {
			return fmt.Errorf("i2c: frame delay %v must not be negative", d)
		}
		c.frameDelay = d

		return nil
	})
}

// WithLogger sets the logger. The default is logger.GetLogger().
func WithLogger(l logger.Logger) Option {
	return optFunc(func(c *Channel) error {
		if l == nil {
			return errors.New("i2c: logger is nil")
		}
		c.logger = l

		return nil
	})
}

// New creates a channel for the device at address on bus.
// The channel owns bus, Close closes it when it implements io.Closer.
func New(bus Bus, address uint16, opts ...Option) (*Channel, error) {
	if bus == nil {
		return nil, errors.New("i2c: bus is nil")
	}
	if address > MaxAddress {
		return nil, fmt.Errorf("i2c: address 0x%X out of range", address)
	}

	c := &Channel{
		bus:      bus,
		address:  address,
		checksum: crc.SensirionChecksum,
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		if err := opt.apply(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Address returns the default device address.
func (c *Channel) Address() uint16 {
	return c.address
}

// Metrics returns the channel metrics.
func (c *Channel) Metrics() *channel.Metrics {
	return &c.metrics
}

// WriteRead performs one I2C transfer.
//
// The request payload is interleaved with checksums and written unless empty. After
// waiting max(req.BusyDelay, frame delay) the response is read when req.Response is
// set, its checksums are validated and stripped and the data is decoded. With
// req.IgnoreErrors any error except a context error is logged and nil is returned.
func (c *Channel) WriteRead(ctx context.Context, req *channel.Request) (descriptor.Values, error) {
	c.metrics.IncTransfer()

	addr := req.ResolveAddress(c.address)
	values, err := c.writeRead(ctx, addr, req)
	if err == nil {
		return values, nil
	}

	ignored := req.IgnoreErrors && ctx.Err() == nil
	c.metrics.ObserveError(err, ignored)
	if ignored {
		c.logger.Debug("i2c transfer error ignored", "address", addr, "error", err)
		return nil, nil
	}

	return nil, err
}

func (c *Channel) writeRead(ctx context.Context, addr uint16, req *channel.Request) (descriptor.Values, error) {
	frame := crc.Interleave(req.TxData, req.PayloadOffset, c.checksum)
	if len(frame) > 0 {
		c.logger.Debug("i2c write", "address", addr, "data", frame)
		if err := c.bus.Write(ctx, addr, frame); err != nil {
			return nil, fmt.Errorf("i2c: write to 0x%02X: %w", addr, err)
		}
		c.metrics.AddWritten(len(frame))
	}

	if err := pool.Sleep(ctx, req.Wait(c.frameDelay)); err != nil {
		return nil, err
	}

	if req.Response == nil {
		return nil, nil
	}

	rxLen := req.Response.Length()
	if c.checksum != nil {
		rxLen = crc.ReadLength(rxLen)
	}

	var data []byte
	if rxLen > 0 {
		var err error
		data, err = c.bus.Read(ctx, addr, rxLen)
		if err != nil {
			return nil, fmt.Errorf("i2c: read from 0x%02X: %w", addr, err)
		}
		c.metrics.AddRead(len(data))
		c.logger.Debug("i2c read", "address", addr, "data", data)
	}

	payload, err := crc.Strip(data, c.checksum)
	if err != nil {
		return nil, fmt.Errorf("i2c: response from 0x%02X: %w", addr, err)
	}

	return req.Response.Unpack(payload)
}

// GeneralCallReset sends the general call reset command, which resets every
// device on the bus that supports it.
func (c *Channel) GeneralCallReset(ctx context.Context) error {
	c.logger.Info("i2c general call reset")
	if err := c.bus.Write(ctx, GeneralCallAddress, []byte{GeneralCallResetCommand}); err != nil {
		return fmt.Errorf("i2c: general call reset: %w", err)
	}
	c.metrics.AddWritten(1)

	return nil
}

// Close releases the bus when it implements io.Closer.
func (c *Channel) Close() error {
	return channel.Close(c.bus)
}
