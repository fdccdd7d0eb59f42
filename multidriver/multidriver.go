// Package multidriver lifts a driver written for a single channel.Channel onto a
// channel.MultiChannel.
//
// New builds one driver instance per member channel through a factory. Call and Do
// invoke the same driver method on every instance, sequentially or concurrently,
// and return the results in channel order:
//
//	type SHT4x struct{ ch channel.Channel }
//
//	func (d *SHT4x) Measure(ctx context.Context) (descriptor.Values, error) { ... }
//
//	drv, err := multidriver.New(mc, func(ch channel.Channel) (*SHT4x, error) {
//		return &SHT4x{ch: ch}, nil
//	})
//	results, err := multidriver.Call(ctx, drv, (*SHT4x).Measure)
package multidriver

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/go-sensoradapter/channel"
	"github.com/arloliu/go-sensoradapter/fanout"
	"github.com/arloliu/go-sensoradapter/logger"
)

// Factory creates the driver for one member channel. Construction arguments other
// than the channel are captured by the closure and so shared by every instance.
type Factory[D any] func(ch channel.Channel) (D, error)

// Driver holds one driver instance per member channel of a MultiChannel.
type Driver[D any] struct {
	mc      *channel.MultiChannel
	drivers []D
	mode    fanout.Mode
	logger  logger.Logger
}

// Option is a functional option for New.
type Option interface {
	apply(*options) error
}

type options struct {
	mode    fanout.Mode
	hasMode bool
	logger  logger.Logger
}

type optFunc func(*options) error

func (f optFunc) apply(o *options) error { return f(o) }

// WithMode sets the fan-out mode of method calls. The default is the mode of the
// MultiChannel.
func WithMode(mode fanout.Mode) Option {
	return optFunc(func(o *options) error {
		if mode != fanout.Sequential && mode != fanout.Concurrent {
			return fmt.Errorf("multidriver: invalid fan-out mode %d", mode)
		}
		o.mode = mode
		o.hasMode = true

		return nil
	})
}

// WithLogger sets the logger. The default is logger.GetLogger().
func WithLogger(l logger.Logger) Option {
	return optFunc(func(o *options) error {
		if l == nil {
			return errors.New("multidriver: logger is nil")
		}
		o.logger = l

		return nil
	})
}

// New creates one driver per member channel of mc, in channel order.
func New[D any](mc *channel.MultiChannel, factory Factory[D], opts ...Option) (*Driver[D], error) {
	if mc == nil {
		return nil, errors.New("multidriver: multi-channel is nil")
	}
	if factory == nil {
		return nil, errors.New("multidriver: factory is nil")
	}

	o := &options{logger: logger.GetLogger()}
	for _, opt := range opts {
		if err := opt.apply(o); err != nil {
			return nil, err
		}
	}
	if !o.hasMode {
		o.mode = mc.Mode()
	}

	drivers := make([]D, mc.ChannelCount())
	for i := range drivers {
		drv, err := factory(mc.Channel(i))
		if err != nil {
			return nil, fmt.Errorf("multidriver: create driver for channel %d: %w", i, err)
		}
		drivers[i] = drv
	}

	return &Driver[D]{mc: mc, drivers: drivers, mode: o.mode, logger: o.logger}, nil
}

// Len returns the number of driver instances.
func (d *Driver[D]) Len() int {
	return len(d.drivers)
}

// Instance returns the driver of member channel i.
func (d *Driver[D]) Instance(i int) D {
	return d.drivers[i]
}

// Instances returns a copy of the drivers in channel order.
func (d *Driver[D]) Instances() []D {
	return append([]D(nil), d.drivers...)
}

// Mode returns the fan-out mode.
func (d *Driver[D]) Mode() fanout.Mode {
	return d.mode
}

// MultiChannel returns the underlying multi-channel.
func (d *Driver[D]) MultiChannel() *channel.MultiChannel {
	return d.mc
}

// Close closes the underlying multi-channel.
func (d *Driver[D]) Close() error {
	return d.mc.Close()
}

// Call invokes fn on every driver instance and returns the results in channel order.
//
// Every instance is called even when others fail; failures are reported as a
// *fanout.Error and the results of the successful instances are still returned.
func Call[D, R any](ctx context.Context, d *Driver[D], fn func(D, context.Context) (R, error)) ([]R, error) {
	results, err := fanout.Run(ctx, d.mode, len(d.drivers), func(ctx context.Context, i int) (R, error) {
		return fn(d.drivers[i], ctx)
	})
	if err != nil {
		d.logger.Warn("multi-driver call failed", "error", err)
	}

	return results, err
}

// Do is like Call for methods that only return an error.
func Do[D any](ctx context.Context, d *Driver[D], fn func(D, context.Context) error) error {
	_, err := Call(ctx, d, func(drv D, ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(drv, ctx)
	})

	return err
}
