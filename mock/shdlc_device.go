package mock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-sensoradapter/logger"
	"github.com/arloliu/go-sensoradapter/shdlc"
)

// ShdlcDevice emulates an SHDLC device. It implements shdlc.Port.
//
// Responses echo the address and command id and carry the configured state
// byte. Response data comes from the ResponseProvider and is not padded.
type ShdlcDevice struct {
	address     uint8
	provider    ResponseProvider
	maxResponse int
	logger      logger.Logger

	state    atomic.Uint32
	mu       sync.Mutex
	history  []Command
	timeouts []time.Duration
}

var _ shdlc.Port = (*ShdlcDevice)(nil)

// NewShdlcDevice creates an SHDLC device mock at address.
// WithResponseProvider, WithMaxResponseLength, WithID and WithLogger apply.
func NewShdlcDevice(address uint8, opts ...SensorOption) (*ShdlcDevice, error) {
	cfg, err := newSensorConfig(opts)
	if err != nil {
		return nil, err
	}

	return &ShdlcDevice{
		address:     address,
		provider:    cfg.provider,
		maxResponse: cfg.maxResponse,
		logger:      cfg.logger.With("mock", cfg.provider.ID(), "id", cfg.id),
	}, nil
}

// SetState sets the state byte of subsequent responses. Bit 7 flags a device error
// state and the low 7 bits hold an error code.
func (d *ShdlcDevice) SetState(state uint8) {
	d.state.Store(uint32(state))
}

func (d *ShdlcDevice) Transceive(_ context.Context, address, cmdID uint8, data []byte, timeout time.Duration) (*shdlc.Response, error) {
	if address != d.address {
		return nil, &AddressError{Expected: uint16(d.address), Received: uint16(address)}
	}

	d.mu.Lock()
	d.history = append(d.history, Command{ID: uint16(cmdID), Data: append([]byte(nil), data...)})
	d.timeouts = append(d.timeouts, timeout)
	d.mu.Unlock()

	d.logger.Info("shdlc mock received command", "command", cmdID)

	state := uint8(d.state.Load()) //nolint:gosec
	resp := &shdlc.Response{Address: address, CommandID: cmdID, State: state}
	if state&0x7f != 0 {
		return resp, nil
	}

	respData, err := d.provider.HandleCommand(uint16(cmdID), data, d.maxResponse)
	if err != nil {
		return nil, err
	}
	if len(respData) > d.maxResponse {
		respData = respData[:d.maxResponse]
	}
	resp.Data = respData

	return resp, nil
}

// Commands returns every command received so far, oldest first.
func (d *ShdlcDevice) Commands() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]Command(nil), d.history...)
}

// Timeouts returns the response timeouts of the received commands.
func (d *ShdlcDevice) Timeouts() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]time.Duration(nil), d.timeouts...)
}
