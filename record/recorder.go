package record

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/arloliu/go-sensoradapter/channel"
	"github.com/arloliu/go-sensoradapter/i2c"
)

// Recorder is an i2c.Bus that forwards every operation to another bus and
// records it. It is safe for concurrent use.
type Recorder struct {
	bus     i2c.Bus
	session uuid.UUID

	mu  sync.Mutex
	enc *cbor.Encoder
	seq uint64
	err error
}

var _ i2c.Bus = (*Recorder)(nil)

// NewRecorder starts a recording of bus to w. description is stored in the header.
func NewRecorder(bus i2c.Bus, w io.Writer, description string) (*Recorder, error) {
	r := &Recorder{
		bus:     bus,
		session: uuid.New(),
		enc:     encMode.NewEncoder(w),
	}

	header := Header{Session: r.session.String(), Created: time.Now().UTC(), Description: description}
	if err := r.enc.Encode(header); err != nil {
		return nil, fmt.Errorf("record: write header: %w", err)
	}

	return r, nil
}

// Session returns the session id of the recording.
func (r *Recorder) Session() uuid.UUID {
	return r.session
}

// Err returns the first error that occurred while writing the recording.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.err
}

func (r *Recorder) Write(ctx context.Context, addr uint16, data []byte) error {
	start := time.Now()
	err := r.bus.Write(ctx, addr, data)
	r.record(Exchange{Op: OpWrite, Address: addr, Data: append([]byte(nil), data...)}, start, err)

	return err
}

func (r *Recorder) Read(ctx context.Context, addr uint16, n int) ([]byte, error) {
	start := time.Now()
	data, err := r.bus.Read(ctx, addr, n)
	r.record(Exchange{Op: OpRead, Address: addr, Data: append([]byte(nil), data...), Length: n}, start, err)

	return data, err
}

func (r *Recorder) record(ex Exchange, start time.Time, busErr error) {
	ex.Time = start.UTC()
	ex.Took = time.Since(start)
	if busErr != nil {
		ex.Error = busErr.Error()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	ex.Seq = r.seq
	if err := r.enc.Encode(ex); err != nil && r.err == nil {
		r.err = fmt.Errorf("record: write exchange %d: %w", ex.Seq, err)
	}
}

// Close closes the recorded bus when it implements io.Closer.
func (r *Recorder) Close() error {
	return channel.Close(r.bus)
}
