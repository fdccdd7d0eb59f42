package record

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-sensoradapter/descriptor"
	"github.com/arloliu/go-sensoradapter/i2c"
	"github.com/arloliu/go-sensoradapter/logger"
	"github.com/arloliu/go-sensoradapter/mock"
	"github.com/arloliu/go-sensoradapter/transfer"
)

var (
	measureTx = descriptor.MustTxData(0x2619, ">HHH")
	measureRx = descriptor.MustRxData(">HH")
)

func recordSession(t *testing.T) (*bytes.Buffer, uuid.UUID) {
	t.Helper()
	require := require.New(t)

	table := mock.NewTableResponse("sht").Set(0x2619, []byte{0x12, 0x34, 0x56, 0x78})
	sensor, err := mock.NewI2CSensor(0x59,
		mock.WithResponseProvider(table),
		mock.WithLogger(logger.NewPermissiveMockLogger()),
	)
	require.NoError(err)

	buf := &bytes.Buffer{}
	rec, err := NewRecorder(mock.NewBus(sensor), buf, "sht measurement")
	require.NoError(err)

	ch, err := i2c.New(rec, 0x59, i2c.WithLogger(logger.NewPermissiveMockLogger()))
	require.NoError(err)

	values, err := transfer.Execute(context.Background(), ch, transfer.New(measureTx, measureRx, 50, 10))
	require.NoError(err)
	require.Equal(descriptor.Values{uint16(0x1234), uint16(0x5678)}, values)

	// an exchange that fails is recorded with its error
	_, err = rec.Read(context.Background(), 0x59, 3)
	require.ErrorIs(err, mock.ErrNoRequest)

	require.NoError(rec.Err())
	require.NoError(rec.Close())

	return buf, rec.Session()
}

func TestRecordReplay(t *testing.T) {
	require := require.New(t)

	buf, session := recordSession(t)

	rp, err := NewReplayer(bytes.NewReader(buf.Bytes()))
	require.NoError(err)
	require.Equal(session.String(), rp.Header().Session)
	require.Equal("sht measurement", rp.Header().Description)
	require.Equal(3, rp.Remaining())

	ch, err := i2c.New(rp, 0x59, i2c.WithLogger(logger.NewPermissiveMockLogger()))
	require.NoError(err)

	values, err := transfer.Execute(context.Background(), ch, transfer.New(measureTx, measureRx, 50, 10))
	require.NoError(err)
	require.Equal(descriptor.Values{uint16(0x1234), uint16(0x5678)}, values)

	_, err = rp.Read(context.Background(), 0x59, 3)
	var replayed *ReplayedError
	require.ErrorAs(err, &replayed)
	require.Contains(replayed.Message, mock.ErrNoRequest.Error())

	require.Zero(rp.Remaining())
	_, err = rp.Read(context.Background(), 0x59, 3)
	require.ErrorIs(err, ErrExhausted)
}

func TestReplay_Mismatch(t *testing.T) {
	tests := []struct {
		desc   string
		replay func(ctx context.Context, rp *Replayer) error
	}{
		{
			desc: "read instead of write",
			replay: func(ctx context.Context, rp *Replayer) error {
				_, err := rp.Read(ctx, 0x59, 6)
				return err
			},
		},
		{
			desc: "other address",
			replay: func(ctx context.Context, rp *Replayer) error {
				return rp.Write(ctx, 0x44, []byte{0x26, 0x19})
			},
		},
		{
			desc: "other data",
			replay: func(ctx context.Context, rp *Replayer) error {
				return rp.Write(ctx, 0x59, []byte{0x26, 0x19})
			},
		},
	}

	buf, _ := recordSession(t)

	for _, tt := range tests {
		t.Logf("Test #%s", tt.desc)
		require := require.New(t)

		rp, err := NewReplayer(bytes.NewReader(buf.Bytes()))
		require.NoError(err)

		err = tt.replay(context.Background(), rp)
		require.ErrorIs(err, ErrMismatch)

		var mismatch *MismatchError
		require.ErrorAs(err, &mismatch)
		require.Equal(uint64(1), mismatch.Seq)
	}
}

func TestNewReplayer_Errors(t *testing.T) {
	require := require.New(t)

	_, err := NewReplayer(bytes.NewReader(nil))
	require.Error(err)

	buf := &bytes.Buffer{}
	require.NoError(encMode.NewEncoder(buf).Encode(Header{Session: "not-a-uuid"}))
	_, err = NewReplayer(buf)
	require.Error(err)

	buf.Reset()
	require.NoError(encMode.NewEncoder(buf).Encode(Header{Session: uuid.NewString()}))
	buf.Write([]byte{0xff})
	_, err = NewReplayer(buf)
	require.Error(err)
}

func TestOp_String(t *testing.T) {
	require := require.New(t)

	require.Equal("write", OpWrite.String())
	require.Equal("read", OpRead.String())
	require.Equal("Op(9)", Op(9).String())
}
