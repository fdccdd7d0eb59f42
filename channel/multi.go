package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/arloliu/go-sensoradapter/descriptor"
	"github.com/arloliu/go-sensoradapter/fanout"
	"github.com/arloliu/go-sensoradapter/logger"
)

var (
	// ErrNoChannels is returned by NewMultiChannel when no member channel is given.
	ErrNoChannels = errors.New("channel: multi-channel needs at least one channel")
	// ErrNilChannel is returned by NewMultiChannel when a member channel is nil.
	ErrNilChannel = errors.New("channel: nil member channel")
)

// MultiChannel fans every request out to an ordered, fixed set of channels.
//
// Results are always returned in construction order. MultiChannel implements
// Channel, so a transfer executed on it yields one result per member.
type MultiChannel struct {
	channels []Channel
	mode     fanout.Mode
	logger   logger.Logger
}

var _ Channel = (*MultiChannel)(nil)

// MultiOption is a functional option for NewMultiChannel.
type MultiOption interface {
	apply(*MultiChannel) error
}

type multiOptFunc func(*MultiChannel) error

func (f multiOptFunc) apply(mc *MultiChannel) error { return f(mc) }

// WithMode sets the fan-out mode. The default is fanout.Sequential.
func WithMode(mode fanout.Mode) MultiOption {
	return multiOptFunc(func(mc *MultiChannel) error {
		if mode != fanout.Sequential && mode != fanout.Concurrent {
			return fmt.Errorf("channel: invalid fan-out mode %d", mode)
		}
		mc.mode = mode

		return nil
	})
}

// WithLogger sets the logger. The default is logger.GetLogger().
func WithLogger(l logger.Logger) MultiOption {
	return multiOptFunc(func(mc *MultiChannel) error {
		if l == nil {
			return errors.New("channel: logger is nil")
		}
		mc.logger = l

		return nil
	})
}

// NewMultiChannel creates a MultiChannel over channels. The slice is copied.
func NewMultiChannel(channels []Channel, opts ...MultiOption) (*MultiChannel, error) {
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}
	for i, ch := range channels {
		if ch == nil {
			return nil, fmt.Errorf("%w at index %d", ErrNilChannel, i)
		}
	}

	mc := &MultiChannel{
		channels: append([]Channel(nil), channels...),
		mode:     fanout.Sequential,
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		if err := opt.apply(mc); err != nil {
			return nil, err
		}
	}

	return mc, nil
}

// ChannelCount returns the number of member channels.
func (mc *MultiChannel) ChannelCount() int {
	return len(mc.channels)
}

// Channel returns member channel i.
func (mc *MultiChannel) Channel(i int) Channel {
	return mc.channels[i]
}

// Mode returns the fan-out mode.
func (mc *MultiChannel) Mode() fanout.Mode {
	return mc.mode
}

// WriteRead sends req to every member channel.
//
// Element i of the returned Values holds the descriptor.Values of channel i, or nil
// when that channel returned nothing. If any channel fails the error is a
// *fanout.Error and the results of the other channels are still returned.
func (mc *MultiChannel) WriteRead(ctx context.Context, req *Request) (descriptor.Values, error) {
	results, err := mc.WriteReadAll(ctx, req)

	values := make(descriptor.Values, len(results))
	for i, r := range results {
		if r != nil {
			values[i] = r
		}
	}

	return values, err
}

// WriteReadAll is like WriteRead but returns the per-channel results as a slice.
func (mc *MultiChannel) WriteReadAll(ctx context.Context, req *Request) ([]descriptor.Values, error) {
	opID := uuid.NewString()
	mc.logger.Debug("fan-out request", "op_id", opID, "channels", len(mc.channels), "mode", mc.mode.String())

	results, err := fanout.Run(ctx, mc.mode, len(mc.channels), func(ctx context.Context, i int) (descriptor.Values, error) {
		return mc.channels[i].WriteRead(ctx, req)
	})

	var fanErr *fanout.Error
	if errors.As(err, &fanErr) {
		mc.logger.Warn("fan-out request failed", "op_id", opID, "failed", fanErr.Failed(), "error", err)
	}

	return results, err
}

// Close closes every member channel that holds a closable transport and joins the errors.
func (mc *MultiChannel) Close() error {
	var errs []error
	for i, ch := range mc.channels {
		if err := Close(ch); err != nil {
			errs = append(errs, fmt.Errorf("channel %d: %w", i, err))
		}
	}

	return errors.Join(errs...)
}
