package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-sensoradapter/crc"
	"github.com/arloliu/go-sensoradapter/descriptor"
	"github.com/arloliu/go-sensoradapter/i2c"
	"github.com/arloliu/go-sensoradapter/logger"
	"github.com/arloliu/go-sensoradapter/shdlc"
	"github.com/arloliu/go-sensoradapter/transfer"
)

var (
	productTypeTx     = descriptor.MustTxData(0xd0, ">BB", descriptor.WithBusyDelay(time.Millisecond))
	productNameRx     = descriptor.MustRxData(">32s")
	firmwareVersionTx = descriptor.MustTxData(0xd1, ">B")
	firmwareVersionRx = descriptor.MustRxData(">BB?BBBB")
	startTx           = descriptor.MustTxData(0x00, ">BB")

	measureTx = descriptor.MustTxData(0x2619, ">HHH")
	measureRx = descriptor.MustRxData(">HH")
)

func quietLogger() logger.Logger {
	return logger.NewPermissiveMockLogger()
}

func TestPaddedASCII(t *testing.T) {
	require := require.New(t)

	require.Equal([]byte{'S', 'V', 'M', 0, 0}, PaddedASCII("SVM", 5))
	require.Equal([]byte("SV"), PaddedASCII("SVM", 2))
	require.Len(RandomBytes(7), 7)

	for _, b := range RandomASCII(64) {
		require.GreaterOrEqual(b, byte(32))
		require.LessOrEqual(b, byte(126))
	}
}

func TestTableResponse(t *testing.T) {
	require := require.New(t)

	table, err := LoadTableResponse("testdata/svm41.yaml")
	require.NoError(err)
	require.Equal("svm41", table.ID())

	resp, err := table.HandleCommand(0xd0, []byte{0}, 32)
	require.NoError(err)
	require.Equal([]byte("00141000"), resp)

	resp, err = table.HandleCommand(0xd0, []byte{1}, 32)
	require.NoError(err)
	require.Equal([]byte("SVM41"), resp)

	resp, err = table.HandleCommand(0xd1, nil, 7)
	require.NoError(err)
	require.Equal([]byte{2, 7, 1, 2, 3, 0, 10}, resp)

	// unknown sub-command and unknown command fall back to random data
	resp, err = table.HandleCommand(0xd0, []byte{9}, 4)
	require.NoError(err)
	require.Len(resp, 4)

	resp, err = table.HandleCommand(0x1234, nil, 6)
	require.NoError(err)
	require.Len(resp, 6)

	_, err = table.HandleCommand(0xd0, nil, 32)
	require.ErrorIs(err, ErrNoSubcommand)
}

func TestParseTableResponse_Errors(t *testing.T) {
	require := require.New(t)

	_, err := ParseTableResponse([]byte("responses: []"))
	require.Error(err)

	_, err = ParseTableResponse([]byte("id: x\nresponses:\n  - command: 1\n    hex: zz\n"))
	require.Error(err)

	_, err = ParseTableResponse([]byte("id: x\nresponses:\n  - command: 1\n    hex: '00'\n    ascii: a\n"))
	require.Error(err)

	_, err = ParseTableResponse([]byte("id: ["))
	require.Error(err)
}

func newSensorChannel(t *testing.T, opts ...SensorOption) (*I2CSensor, *i2c.Channel) {
	t.Helper()

	opts = append([]SensorOption{WithLogger(quietLogger())}, opts...)
	sensor, err := NewI2CSensor(0x59, opts...)
	require.NoError(t, err)

	ch, err := i2c.New(sensor, 0x59, i2c.WithLogger(quietLogger()))
	require.NoError(t, err)

	return sensor, ch
}

func TestI2CSensor_RoundTrip(t *testing.T) {
	require := require.New(t)

	table := NewTableResponse("sht").Set(0x2619, []byte{0x12, 0x34, 0x56, 0x78})
	sensor, ch := newSensorChannel(t, WithResponseProvider(table))

	values, err := transfer.Execute(context.Background(), ch, transfer.New(measureTx, measureRx, 50, 10))
	require.NoError(err)
	require.Equal(descriptor.Values{uint16(0x1234), uint16(0x5678)}, values)

	cmds := sensor.Commands()
	require.Len(cmds, 1)
	require.Equal(uint16(0x2619), cmds[0].ID)
	require.Equal([]byte{0, 50, 0, 10}, cmds[0].Data)
	require.Zero(sensor.Pending())
}

func TestI2CSensor_RandomDefault(t *testing.T) {
	require := require.New(t)

	_, ch := newSensorChannel(t)
	values, err := transfer.Execute(context.Background(), ch, transfer.New(measureTx, measureRx, 1, 2))
	require.NoError(err)
	require.Len(values, 2)
}

func TestI2CSensor_Errors(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	sensor, err := NewI2CSensor(0x59, WithLogger(quietLogger()))
	require.NoError(err)

	err = sensor.Write(ctx, 0x60, []byte{0x36, 0x82})
	require.ErrorIs(err, ErrAddress)

	var addrErr *AddressError
	require.ErrorAs(err, &addrErr)
	require.Equal(uint16(0x59), addrErr.Expected)
	require.Equal(uint16(0x60), addrErr.Received)

	_, err = sensor.Read(ctx, 0x59, 3)
	require.ErrorIs(err, ErrNoRequest)

	err = sensor.Write(ctx, 0x59, []byte{0x26, 0x19, 0xbe, 0xef, 0x00})
	require.ErrorIs(err, crc.ErrChecksum)

	// a one byte wake-up write is accepted
	require.NoError(sensor.Write(ctx, 0x59, []byte{0x35}))
	require.Equal(uint16(0x35), sensor.Commands()[0].ID)

	_, err = NewI2CSensor(0x59, WithCommandWidth(3))
	require.Error(err)
	_, err = NewI2CSensor(0x59, WithResponseProvider(nil))
	require.Error(err)
}

func TestI2CSensor_OneByteCommand(t *testing.T) {
	require := require.New(t)

	table := NewTableResponse("one").SetSub(0xd0, 1, []byte{0xaa, 0xbb})
	sensor, ch := newSensorChannel(t, WithCommandWidth(1), WithResponseProvider(table))

	values, err := transfer.Execute(context.Background(), ch,
		transfer.New(descriptor.MustTxData(0xd0, ">BB"), descriptor.MustRxData(">H"), 1))
	require.NoError(err)
	require.Equal(descriptor.Values{uint16(0xaabb)}, values)
	require.Equal([]Command{{ID: 0xd0, Data: []byte{1}}}, sensor.Commands())
}

func TestBus(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	s1, err := NewI2CSensor(0x59, WithLogger(quietLogger()))
	require.NoError(err)
	s2, err := NewI2CSensor(0x44, WithLogger(quietLogger()))
	require.NoError(err)

	bus := NewBus(s1, s2)
	require.Equal([]uint16{0x44, 0x59}, bus.Addresses())

	require.NoError(bus.Write(ctx, 0x44, []byte{0x24, 0x00}))
	require.Equal(1, s2.Pending())
	require.Zero(s1.Pending())

	err = bus.Write(ctx, 0x10, []byte{0x24, 0x00})
	require.ErrorIs(err, ErrAddress)
	_, err = bus.Read(ctx, 0x10, 3)
	require.ErrorIs(err, ErrAddress)

	ch, err := i2c.New(bus, 0x44, i2c.WithLogger(quietLogger()))
	require.NoError(err)
	require.NoError(ch.GeneralCallReset(ctx))
	require.Zero(s2.Pending())
	require.Equal(1, s1.Resets())
	require.Equal(1, s2.Resets())

	bus.Detach(0x59)
	require.Equal([]uint16{0x44}, bus.Addresses())

	require.NoError(ch.Close())
	require.True(bus.Closed())
	require.ErrorIs(bus.Write(ctx, 0x44, []byte{0x24, 0x00}), ErrBusClosed)
}

func newSvm41(t *testing.T) (*ShdlcDevice, *shdlc.Channel) {
	t.Helper()

	table, err := LoadTableResponse("testdata/svm41.yaml")
	require.NoError(t, err)

	dev, err := NewShdlcDevice(0, WithResponseProvider(table), WithLogger(quietLogger()))
	require.NoError(t, err)

	ch, err := shdlc.New(dev, shdlc.WithLogger(quietLogger()), shdlc.WithFrameDelay(100*time.Millisecond))
	require.NoError(t, err)

	return dev, ch
}

func TestShdlcDevice_Svm41(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	dev, ch := newSvm41(t)

	values, err := transfer.Execute(ctx, ch, transfer.New(productTypeTx, productNameRx, 0))
	require.NoError(err)
	text, err := values.Text(0)
	require.NoError(err)
	require.Equal("00141000", text)

	values, err = transfer.Execute(ctx, ch, transfer.New(productTypeTx, productNameRx, 1))
	require.NoError(err)
	text, err = values.Text(0)
	require.NoError(err)
	require.Equal("SVM41", text)

	values, err = transfer.Execute(ctx, ch, transfer.New(firmwareVersionTx, firmwareVersionRx))
	require.NoError(err)
	require.Len(values, 7)

	_, err = transfer.Execute(ctx, ch, transfer.New(startTx, nil, 0))
	require.NoError(err)

	require.Len(dev.Commands(), 4)
	require.Equal(100*time.Millisecond, dev.Timeouts()[0])
}

func TestShdlcDevice_ErrorState(t *testing.T) {
	require := require.New(t)

	dev, ch := newSvm41(t)
	dev.SetState(0x80 | 0x03)

	_, err := transfer.Execute(context.Background(), ch, transfer.New(productTypeTx, productNameRx, 1))
	require.ErrorIs(err, shdlc.ErrDevice)

	var devErr *shdlc.DeviceError
	require.ErrorAs(err, &devErr)
	require.Equal(uint8(3), devErr.Code)
}

func TestShdlcDevice_Address(t *testing.T) {
	require := require.New(t)

	dev, err := NewShdlcDevice(2, WithLogger(quietLogger()))
	require.NoError(err)

	_, err = dev.Transceive(context.Background(), 3, 0xd0, nil, time.Second)
	require.ErrorIs(err, ErrAddress)

	_, err = NewShdlcDevice(2, WithMaxResponseLength(300))
	require.Error(err)
}
