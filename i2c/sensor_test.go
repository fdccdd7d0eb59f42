package i2c_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-sensoradapter/descriptor"
	"github.com/arloliu/go-sensoradapter/i2c"
	"github.com/arloliu/go-sensoradapter/logger"
	"github.com/arloliu/go-sensoradapter/mock"
	"github.com/arloliu/go-sensoradapter/transfer"
)

func TestChannel_ResponseLengths(t *testing.T) {
	tests := []struct {
		desc     string
		layout   string
		response []byte
		expected descriptor.Values
	}{
		{
			desc:     "one byte",
			layout:   ">B",
			response: []byte{0x2a},
			expected: descriptor.Values{uint8(0x2a)},
		},
		{
			desc:     "three bytes",
			layout:   ">3B",
			response: []byte{0x01, 0x02, 0x03},
			expected: descriptor.Values{uint8(1), uint8(2), uint8(3)},
		},
		{
			desc:     "word and byte",
			layout:   ">HB",
			response: []byte{0xbe, 0xef, 0x07},
			expected: descriptor.Values{uint16(0xbeef), uint8(0x07)},
		},
		{
			desc:     "two words",
			layout:   ">HH",
			response: []byte{0x12, 0x34, 0x56, 0x78},
			expected: descriptor.Values{uint16(0x1234), uint16(0x5678)},
		},
	}

	for _, tt := range tests {
		t.Logf("Test #%s", tt.desc)
		require := require.New(t)

		table := mock.NewTableResponse("odd").Set(0x3615, tt.response)
		sensor, err := mock.NewI2CSensor(0x62, mock.WithResponseProvider(table),
			mock.WithLogger(logger.NewPermissiveMockLogger()))
		require.NoError(err)

		ch, err := i2c.New(sensor, 0x62, i2c.WithLogger(logger.NewPermissiveMockLogger()))
		require.NoError(err)

		values, err := transfer.Execute(context.Background(), ch,
			transfer.New(descriptor.MustTxData(0x3615, ">H"), descriptor.MustRxData(tt.layout)))
		require.NoError(err)
		require.Equal(tt.expected, values)
	}
}

func TestChannel_OddLengthArgument(t *testing.T) {
	require := require.New(t)

	table := mock.NewTableResponse("odd").SetSub(0xd0, 0x05, []byte{0x2a})
	sensor, err := mock.NewI2CSensor(0x62, mock.WithCommandWidth(1), mock.WithResponseProvider(table),
		mock.WithLogger(logger.NewPermissiveMockLogger()))
	require.NoError(err)

	ch, err := i2c.New(sensor, 0x62, i2c.WithLogger(logger.NewPermissiveMockLogger()))
	require.NoError(err)

	values, err := transfer.Execute(context.Background(), ch,
		transfer.New(descriptor.MustTxData(0xd0, ">BB"), descriptor.MustRxData(">B"), 5))
	require.NoError(err)
	require.Equal(descriptor.Values{uint8(0x2a)}, values)
	require.Equal([]mock.Command{{ID: 0xd0, Data: []byte{0x05}}}, sensor.Commands())
}
