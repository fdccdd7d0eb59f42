package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-sensoradapter/channel"
	"github.com/arloliu/go-sensoradapter/crc"
	"github.com/arloliu/go-sensoradapter/descriptor"
	"github.com/arloliu/go-sensoradapter/i2c"
	"github.com/arloliu/go-sensoradapter/logger"
)

var (
	selectTx  = descriptor.MustTxData(0xd0, ">BB")
	measureTx = descriptor.MustTxData(0x2619, ">HHH", descriptor.WithBusyDelay(2*time.Millisecond))
	measureRx = descriptor.MustRxData(">HH")
	resetTx   = descriptor.MustTxData(0xd304, ">H", descriptor.WithIgnoreAck(true))
)

// countingBus answers every read with a valid frame of repeated 0xbeef words.
type countingBus struct {
	writes [][]byte
	reads  []int
	errOn  map[int]error
}

func (b *countingBus) Write(_ context.Context, _ uint16, data []byte) error {
	b.writes = append(b.writes, data)
	if err, ok := b.errOn[len(b.writes)]; ok {
		return err
	}
	return nil
}

func (b *countingBus) Read(_ context.Context, _ uint16, n int) ([]byte, error) {
	b.reads = append(b.reads, n)
	out := make([]byte, 0, n)
	for len(out) < n {
		out = append(out, 0xbe, 0xef, crc.SensirionChecksum([]byte{0xbe, 0xef}))
	}
	return out[:n], nil
}

func newChannel(t *testing.T, bus i2c.Bus) *i2c.Channel {
	t.Helper()
	ch, err := i2c.New(bus, 0x6a, i2c.WithLogger(logger.NewPermissiveMockLogger()))
	require.NoError(t, err)

	return ch
}

func TestExecute_Chain(t *testing.T) {
	require := require.New(t)

	bus := &countingBus{}
	ch := newChannel(t, bus)

	values, err := Execute(context.Background(), ch,
		New(selectTx, measureRx, 1),
		New(selectTx, measureRx, 2),
		New(measureTx, measureRx, 1, 2),
	)
	require.NoError(err)
	require.Equal(descriptor.Values{uint16(0xbeef), uint16(0xbeef)}, values)

	require.Len(bus.writes, 3)
	require.Equal([]byte{0xd0, 0x01, crc.SensirionChecksum([]byte{0x01})}, bus.writes[0])
	require.Equal([]byte{0xd0, 0x02, crc.SensirionChecksum([]byte{0x02})}, bus.writes[1])
	require.Equal([]int{6}, bus.reads)
}

func TestExecute_LastWithoutResponse(t *testing.T) {
	require := require.New(t)

	bus := &countingBus{}
	values, err := Execute(context.Background(), newChannel(t, bus), New(descriptor.MustTxData(0x3f86, ">H"), nil))
	require.NoError(err)
	require.Nil(values)
	require.Len(bus.writes, 1)
	require.Empty(bus.reads)
}

func TestExecute_IgnoreAck(t *testing.T) {
	require := require.New(t)

	errNack := errors.New("nack")
	bus := &countingBus{errOn: map[int]error{1: errNack}}

	values, err := Execute(context.Background(), newChannel(t, bus),
		New(resetTx, nil),
		New(measureTx, measureRx, 0, 0),
	)
	require.NoError(err)
	require.Len(values, 2)
	require.Len(bus.writes, 2)
}

func TestExecute_FailureStops(t *testing.T) {
	require := require.New(t)

	errNack := errors.New("nack")
	bus := &countingBus{errOn: map[int]error{1: errNack}}

	_, err := Execute(context.Background(), newChannel(t, bus),
		New(selectTx, nil, 1),
		New(measureTx, measureRx, 0, 0),
	)
	require.ErrorIs(err, errNack)
	require.Len(bus.writes, 1)
}

func TestExecute_Errors(t *testing.T) {
	require := require.New(t)

	bus := &countingBus{}
	ch := newChannel(t, bus)

	_, err := Execute(context.Background(), ch)
	require.ErrorIs(err, ErrNoTransfers)

	_, err = Execute(context.Background(), ch, New(measureTx, measureRx, 1))
	require.ErrorIs(err, descriptor.ErrEncoding)
	require.Empty(bus.writes)

	_, err = Execute(context.Background(), ch, New(nil, measureRx, 1))
	require.ErrorIs(err, descriptor.ErrEncoding)
}

func TestExecute_ReadOnly(t *testing.T) {
	require := require.New(t)

	bus := &countingBus{}
	values, err := Execute(context.Background(), newChannel(t, bus), New(nil, descriptor.MustRxData(">H")))
	require.NoError(err)
	require.Equal(descriptor.Values{uint16(0xbeef)}, values)
	require.Empty(bus.writes)
	require.Equal([]int{3}, bus.reads)
}

// recordingChannel captures requests.
type recordingChannel struct {
	requests []*channel.Request
}

func (c *recordingChannel) WriteRead(_ context.Context, req *channel.Request) (descriptor.Values, error) {
	c.requests = append(c.requests, req)
	return nil, nil
}

func TestExecute_RequestMetadata(t *testing.T) {
	require := require.New(t)

	addrTx := descriptor.MustTxData(0xd0, ">BB", descriptor.WithAddress(0x10), descriptor.WithBusyDelay(time.Millisecond))
	ch := &recordingChannel{}

	_, err := Execute(context.Background(), ch, New(addrTx, measureRx, 3), New(measureTx, measureRx, 1, 2))
	require.NoError(err)
	require.Len(ch.requests, 2)

	first := ch.requests[0]
	require.Nil(first.Response)
	require.Equal(1, first.PayloadOffset)
	require.True(first.HasAddress)
	require.Equal(uint16(0x10), first.Address)
	require.Equal(time.Millisecond, first.BusyDelay)

	second := ch.requests[1]
	require.Same(measureRx, second.Response)
	require.Equal(2, second.PayloadOffset)
	require.False(second.HasAddress)
	require.Equal(2*time.Millisecond, second.BusyDelay)
}
