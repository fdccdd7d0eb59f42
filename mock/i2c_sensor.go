package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-sensoradapter/crc"
	"github.com/arloliu/go-sensoradapter/i2c"
	"github.com/arloliu/go-sensoradapter/internal/queue"
	"github.com/arloliu/go-sensoradapter/logger"
)

// Command is a command received by a sensor mock, checksums removed.
type Command struct {
	ID   uint16
	Data []byte
}

// I2CSensor emulates one I2C sensor. It implements i2c.Bus.
type I2CSensor struct {
	address  uint16
	cmdWidth int
	checksum crc.Func
	id       int
	provider ResponseProvider
	logger   logger.Logger

	pending queue.Queue[Command]
	mu      sync.Mutex
	history []Command
	resets  atomic.Int32
}

var _ i2c.Bus = (*I2CSensor)(nil)

// SensorOption is a functional option for NewI2CSensor and NewShdlcDevice.
type SensorOption interface {
	apply(*sensorConfig) error
}

type sensorConfig struct {
	cmdWidth    int
	checksum    crc.Func
	id          int
	provider    ResponseProvider
	logger      logger.Logger
	maxResponse int
}

type sensorOptFunc func(*sensorConfig) error

func (f sensorOptFunc) apply(cfg *sensorConfig) error { return f(cfg) }

// WithResponseProvider sets the response provider. The default is RandomResponse.
func WithResponseProvider(p ResponseProvider) SensorOption {
	return sensorOptFunc(func(cfg *sensorConfig) error {
		if p == nil {
			return errors.New("mock: response provider is nil")
		}
		cfg.provider = p

		return nil
	})
}

// WithCommandWidth sets the command id width in bytes, 1 or 2. The default is 2.
func WithCommandWidth(width int) SensorOption {
	return sensorOptFunc(func(cfg *sensorConfig) error {
		if width != 1 && width != 2 {
			return fmt.Errorf("mock: invalid command width %d", width)
		}
		cfg.cmdWidth = width

		return nil
	})
}

// WithChecksum sets the checksum function. Nil disables checksums.
// The default is the Sensirion CRC-8.
func WithChecksum(fn crc.Func) SensorOption {
	return sensorOptFunc(func(cfg *sensorConfig) error {
		cfg.checksum = fn
		return nil
	})
}

// WithID sets the mock id used in log output.
func WithID(id int) SensorOption {
	return sensorOptFunc(func(cfg *sensorConfig) error {
		cfg.id = id
		return nil
	})
}

// WithMaxResponseLength sets the response length passed to the provider by an
// ShdlcDevice. The default is 255, the maximum SHDLC frame data length.
func WithMaxResponseLength(n int) SensorOption {
	return sensorOptFunc(func(cfg *sensorConfig) error {
		if n < 0 || n > 255 {
			return fmt.Errorf("mock: invalid response length %d", n)
		}
		cfg.maxResponse = n

		return nil
	})
}

// WithLogger sets the logger. The default is logger.GetLogger().
func WithLogger(l logger.Logger) SensorOption {
	return sensorOptFunc(func(cfg *sensorConfig) error {
		if l == nil {
			return errors.New("mock: logger is nil")
		}
		cfg.logger = l

		return nil
	})
}

func newSensorConfig(opts []SensorOption) (*sensorConfig, error) {
	cfg := &sensorConfig{
		cmdWidth:    2,
		checksum:    crc.SensirionChecksum,
		provider:    RandomResponse{},
		logger:      logger.GetLogger(),
		maxResponse: 255,
	}
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewI2CSensor creates a sensor mock listening on address.
func NewI2CSensor(address uint16, opts ...SensorOption) (*I2CSensor, error) {
	cfg, err := newSensorConfig(opts)
	if err != nil {
		return nil, err
	}

	return &I2CSensor{
		address:  address,
		cmdWidth: cfg.cmdWidth,
		checksum: cfg.checksum,
		id:       cfg.id,
		provider: cfg.provider,
		logger:   cfg.logger.With("mock", cfg.provider.ID(), "id", cfg.id),
		pending:  queue.NewLockFreeQueue[Command](),
	}, nil
}

// Address returns the sensor address.
func (s *I2CSensor) Address() uint16 {
	return s.address
}

// Write receives a command. The command id is not checksummed; the arguments must
// carry valid checksums. A write shorter than the command width, such as a one
// byte wake-up, is accepted as a command of that length.
func (s *I2CSensor) Write(_ context.Context, addr uint16, data []byte) error {
	if addr != s.address {
		return &AddressError{Expected: s.address, Received: addr}
	}

	cmdLen := min(len(data), s.cmdWidth)
	var cmdID uint16
	for _, b := range data[:cmdLen] {
		cmdID = cmdID<<8 | uint16(b)
	}

	args, err := crc.Strip(data[cmdLen:], s.checksum)
	if err != nil {
		return fmt.Errorf("mock: command 0x%X: %w", cmdID, err)
	}

	cmd := Command{ID: cmdID, Data: args}
	s.pending.Enqueue(cmd)
	s.mu.Lock()
	s.history = append(s.history, cmd)
	s.mu.Unlock()

	s.logger.Info("sensor mock received command", "command", cmdID)

	return nil
}

// Read answers the oldest pending command with n checksum framed bytes.
func (s *I2CSensor) Read(_ context.Context, addr uint16, n int) ([]byte, error) {
	if addr != s.address {
		return nil, &AddressError{Expected: s.address, Received: addr}
	}

	cmd, ok := s.pending.Dequeue()
	if !ok {
		return nil, ErrNoRequest
	}
	if n <= 0 {
		return []byte{}, nil
	}

	length := n
	if s.checksum != nil {
		length = crc.PayloadLength(n)
	}
	s.logger.Info("sensor mock received read request", "command", cmd.ID, "bytes", length)

	resp, err := s.provider.HandleCommand(cmd.ID, cmd.Data, length)
	if err != nil {
		return nil, err
	}

	return crc.Interleave(fit(resp, length), 0, s.checksum), nil
}

// Commands returns every command received so far, oldest first.
func (s *I2CSensor) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Command(nil), s.history...)
}

// Pending returns the number of commands not answered by a read.
func (s *I2CSensor) Pending() int {
	return s.pending.Length()
}

// Reset drops pending commands, as a general call reset does.
func (s *I2CSensor) Reset() {
	for !s.pending.IsEmpty() {
		s.pending.Dequeue()
	}
	s.resets.Add(1)
}

// Resets returns how many times the sensor was reset.
func (s *I2CSensor) Resets() int {
	return int(s.resets.Load())
}
