package channel

import (
	"errors"
	"sync/atomic"

	"github.com/arloliu/go-sensoradapter/crc"
)

// Metrics contains atomic counters of a channel.
// Metrics can be used as the value of a prometheus CounterFunc.
type Metrics struct {
	// TransferCount indicates the number of WriteRead calls.
	TransferCount atomic.Uint64
	// ErrorCount indicates the number of failed transfers, ignored ones included.
	ErrorCount atomic.Uint64
	// ChecksumErrorCount indicates the number of responses with a checksum mismatch.
	ChecksumErrorCount atomic.Uint64
	// IgnoredErrorCount indicates the number of errors swallowed by IgnoreErrors.
	IgnoredErrorCount atomic.Uint64
	// BytesWritten indicates the number of bytes written to the transport.
	BytesWritten atomic.Uint64
	// BytesRead indicates the number of bytes read from the transport.
	BytesRead atomic.Uint64
}

// IncTransfer counts one transfer.
func (m *Metrics) IncTransfer() {
	m.TransferCount.Add(1)
}

// AddWritten counts n written bytes.
func (m *Metrics) AddWritten(n int) {
	m.BytesWritten.Add(uint64(n)) //nolint:gosec
}

// AddRead counts n read bytes.
func (m *Metrics) AddRead(n int) {
	m.BytesRead.Add(uint64(n)) //nolint:gosec
}

// ObserveError counts err, classifying checksum mismatches and ignored errors.
func (m *Metrics) ObserveError(err error, ignored bool) {
	if err == nil {
		return
	}
	m.ErrorCount.Add(1)
	if errors.Is(err, crc.ErrChecksum) {
		m.ChecksumErrorCount.Add(1)
	}
	if ignored {
		m.IgnoredErrorCount.Add(1)
	}
}

// MetricsProvider is implemented by channels that expose their Metrics.
type MetricsProvider interface {
	Metrics() *Metrics
}
