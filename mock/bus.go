package mock

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-sensoradapter/i2c"
)

// ErrBusClosed is returned by a closed Bus.
var ErrBusClosed = errors.New("mock: bus closed")

// Bus is an I2C bus with several sensor mocks attached. It implements i2c.Bus and
// io.Closer.
//
// A write of the general call reset command to the general call address resets
// every attached sensor. Requests to an address without a sensor fail with an
// *AddressError, as a missing acknowledge would.
type Bus struct {
	sensors *xsync.MapOf[uint16, *I2CSensor]
	closed  atomic.Bool
}

var _ i2c.Bus = (*Bus)(nil)

// NewBus creates a bus with sensors attached.
func NewBus(sensors ...*I2CSensor) *Bus {
	b := &Bus{sensors: xsync.NewMapOf[uint16, *I2CSensor]()}
	for _, s := range sensors {
		b.Attach(s)
	}

	return b
}

// Attach attaches s, replacing any sensor with the same address.
func (b *Bus) Attach(s *I2CSensor) {
	b.sensors.Store(s.Address(), s)
}

// Detach removes the sensor at addr.
func (b *Bus) Detach(addr uint16) {
	b.sensors.Delete(addr)
}

// Addresses returns the addresses of the attached sensors in ascending order.
func (b *Bus) Addresses() []uint16 {
	addrs := make([]uint16, 0, b.sensors.Size())
	b.sensors.Range(func(addr uint16, _ *I2CSensor) bool {
		addrs = append(addrs, addr)
		return true
	})
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	return addrs
}

func (b *Bus) Write(ctx context.Context, addr uint16, data []byte) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	if addr == i2c.GeneralCallAddress && len(data) == 1 && data[0] == i2c.GeneralCallResetCommand {
		b.sensors.Range(func(_ uint16, s *I2CSensor) bool {
			s.Reset()
			return true
		})
		return nil
	}

	s, ok := b.sensors.Load(addr)
	if !ok {
		return &AddressError{Received: addr}
	}

	return s.Write(ctx, addr, data)
}

func (b *Bus) Read(ctx context.Context, addr uint16, n int) ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}

	s, ok := b.sensors.Load(addr)
	if !ok {
		return nil, &AddressError{Received: addr}
	}

	return s.Read(ctx, addr, n)
}

// Close closes the bus, further requests fail with ErrBusClosed.
func (b *Bus) Close() error {
	b.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (b *Bus) Closed() bool {
	return b.closed.Load()
}
