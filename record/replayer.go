package record

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/arloliu/go-sensoradapter/i2c"
	"github.com/arloliu/go-sensoradapter/internal/queue"
)

var (
	// ErrExhausted is returned when the bus is used after the last recorded exchange.
	ErrExhausted = errors.New("record: recording exhausted")
	// ErrMismatch is matched by every *MismatchError.
	ErrMismatch = errors.New("record: exchange does not match recording")
)

// MismatchError reports an operation that differs from the recorded one.
type MismatchError struct {
	Seq    uint64
	Reason string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("record: exchange %d does not match recording: %s", e.Seq, e.Reason)
}

// Is makes errors.Is(err, ErrMismatch) report true.
func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

// ReplayedError is returned where the recorded bus returned an error.
type ReplayedError struct {
	Message string
}

func (e *ReplayedError) Error() string {
	return e.Message
}

// Replayer is an i2c.Bus answering from a recording. Operations must arrive in
// the recorded order with the recorded addresses and data. It is safe for
// concurrent use, though concurrent callers will rarely match the recorded order.
type Replayer struct {
	header Header

	mu        sync.Mutex
	exchanges queue.Queue[Exchange]
}

var _ i2c.Bus = (*Replayer)(nil)

// NewReplayer reads a complete recording from r.
func NewReplayer(r io.Reader) (*Replayer, error) {
	dec := decMode.NewDecoder(r)

	rp := &Replayer{exchanges: queue.NewSliceQueue[Exchange](64)}
	if err := dec.Decode(&rp.header); err != nil {
		return nil, fmt.Errorf("record: read header: %w", err)
	}
	if _, err := uuid.Parse(rp.header.Session); err != nil {
		return nil, fmt.Errorf("record: invalid session id %q: %w", rp.header.Session, err)
	}

	for {
		var ex Exchange
		err := dec.Decode(&ex)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record: read exchange: %w", err)
		}
		rp.exchanges.Enqueue(ex)
	}

	return rp, nil
}

// Header returns the recording header.
func (rp *Replayer) Header() Header {
	return rp.header
}

// Remaining returns the number of exchanges not replayed yet.
func (rp *Replayer) Remaining() int {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	return rp.exchanges.Length()
}

func (rp *Replayer) next(op Op, addr uint16) (Exchange, error) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	ex, ok := rp.exchanges.Dequeue()
	if !ok {
		return Exchange{}, ErrExhausted
	}
	if ex.Op != op {
		return ex, &MismatchError{Seq: ex.Seq, Reason: fmt.Sprintf("got %s, recorded %s", op, ex.Op)}
	}
	if ex.Address != addr {
		return ex, &MismatchError{Seq: ex.Seq, Reason: fmt.Sprintf("address 0x%02X, recorded 0x%02X", addr, ex.Address)}
	}

	return ex, nil
}

func (rp *Replayer) Write(_ context.Context, addr uint16, data []byte) error {
	ex, err := rp.next(OpWrite, addr)
	if err != nil {
		return err
	}
	if !bytes.Equal(ex.Data, data) {
		return &MismatchError{Seq: ex.Seq, Reason: fmt.Sprintf("data % X, recorded % X", data, ex.Data)}
	}
	if ex.Error != "" {
		return &ReplayedError{Message: ex.Error}
	}

	return nil
}

func (rp *Replayer) Read(_ context.Context, addr uint16, n int) ([]byte, error) {
	ex, err := rp.next(OpRead, addr)
	if err != nil {
		return nil, err
	}
	if ex.Length != n {
		return nil, &MismatchError{Seq: ex.Seq, Reason: fmt.Sprintf("length %d, recorded %d", n, ex.Length)}
	}
	if ex.Error != "" {
		return nil, &ReplayedError{Message: ex.Error}
	}

	return ex.Data, nil
}
