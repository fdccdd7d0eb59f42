// Package config loads the settings of a sensor adapter from a YAML/TOML/JSON
// file and SENSOR_ prefixed environment variables, and turns them into
// channel, fan-out and logger options.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/arloliu/go-sensoradapter/channel"
	"github.com/arloliu/go-sensoradapter/fanout"
	"github.com/arloliu/go-sensoradapter/i2c"
	"github.com/arloliu/go-sensoradapter/logger"
	"github.com/arloliu/go-sensoradapter/shdlc"
)

// EnvPrefix prefixes every environment variable override, e.g. SENSOR_CHANNEL_KIND.
const EnvPrefix = "SENSOR"

// Channel kinds.
const (
	KindI2C   = "i2c"
	KindShdlc = "shdlc"
)

// ChannelConfig describes the physical channels. One channel is built per address.
type ChannelConfig struct {
	Kind      string   `mapstructure:"kind"`
	Addresses []uint16 `mapstructure:"addresses"`
	// Checksum enables CRC interleaving on I2C channels.
	Checksum bool `mapstructure:"checksum"`
	// FrameDelay is the minimum wait after a write, zero keeps the channel default.
	FrameDelay time.Duration `mapstructure:"frameDelay"`
}

// FanoutConfig selects how a command is distributed over the channels.
type FanoutConfig struct {
	Mode string `mapstructure:"mode"`
}

// LumberjackConfig configures log file rotation of the zap backend.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig selects the logger backend and its output.
type LoggingConfig struct {
	// Backend is "slog" or "zap".
	Backend string `mapstructure:"backend"`
	Level   string `mapstructure:"level"`
	// Format is "json" or "console".
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig configures the Prometheus export.
type MetricsConfig struct {
	Enable    bool   `mapstructure:"enable"`
	Namespace string `mapstructure:"namespace"`
	Addr      string `mapstructure:"addr"`
	Path      string `mapstructure:"path"`
}

// Config is the top level configuration.
type Config struct {
	Channel ChannelConfig `mapstructure:"channel"`
	Fanout  FanoutConfig  `mapstructure:"fanout"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// Load reads the configuration file at path and applies environment overrides.
// An empty path falls back to the SENSOR_CONFIG environment variable, then to
// sensor.yaml in the working directory or ./configs. A missing default file is
// not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("sensor")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("channel.kind", KindI2C)
	v.SetDefault("channel.addresses", []uint16{0x59})
	v.SetDefault("channel.checksum", true)
	v.SetDefault("channel.frameDelay", "0s")

	v.SetDefault("fanout.mode", fanout.Sequential.String())

	v.SetDefault("logging.backend", "slog")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", false)
	v.SetDefault("metrics.namespace", "sensoradapter")
	v.SetDefault("metrics.addr", ":9100")
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks the channel kind, the addresses, the fan-out mode and the logger backend.
func (c *Config) Validate() error {
	switch c.Channel.Kind {
	case KindI2C, KindShdlc:
	default:
		return fmt.Errorf("config: unknown channel kind %q", c.Channel.Kind)
	}

	if len(c.Channel.Addresses) == 0 {
		return errors.New("config: no channel addresses")
	}
	for _, addr := range c.Channel.Addresses {
		if c.Channel.Kind == KindShdlc && addr > 0xff {
			return fmt.Errorf("config: shdlc address 0x%X out of range", addr)
		}
		if addr > i2c.MaxAddress {
			return fmt.Errorf("config: i2c address 0x%X out of range", addr)
		}
	}

	if c.Channel.FrameDelay < 0 {
		return fmt.Errorf("config: negative frame delay %s", c.Channel.FrameDelay)
	}

	if _, err := c.Fanout.ParseMode(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch c.Logging.Backend {
	case "slog", "zap":
	default:
		return fmt.Errorf("config: unknown logging backend %q", c.Logging.Backend)
	}

	return nil
}

// ParseMode returns the configured fan-out mode.
func (c FanoutConfig) ParseMode() (fanout.Mode, error) {
	return fanout.ParseMode(c.Mode)
}

// Build creates the configured logger.
func (c LoggingConfig) Build() (logger.Logger, error) {
	level := logger.ParseLevel(c.Level)

	switch c.Backend {
	case "", "slog":
		return logger.NewSlogWithOptions(level, logger.WithConsole(c.Format == "console")), nil
	case "zap":
		return logger.NewZap(level, c.Format, logger.RotateConfig{
			Filename:   c.File.Filename,
			MaxSizeMB:  c.File.MaxSizeMB,
			MaxBackups: c.File.MaxBackups,
			MaxAgeDays: c.File.MaxAgeDays,
			Compress:   c.File.Compress,
		}), nil
	default:
		return nil, fmt.Errorf("config: unknown logging backend %q", c.Backend)
	}
}

// I2COptions returns the options of an I2C channel.
func (c ChannelConfig) I2COptions(l logger.Logger) []i2c.Option {
	opts := []i2c.Option{i2c.WithLogger(l)}
	if !c.Checksum {
		opts = append(opts, i2c.WithoutChecksum())
	}
	if c.FrameDelay > 0 {
		opts = append(opts, i2c.WithFrameDelay(c.FrameDelay))
	}

	return opts
}

// ShdlcOptions returns the options of the SHDLC channel of the device at address.
func (c ChannelConfig) ShdlcOptions(address uint16, l logger.Logger) ([]shdlc.Option, error) {
	if address > 0xff {
		return nil, fmt.Errorf("config: shdlc address 0x%X out of range", address)
	}

	opts := []shdlc.Option{shdlc.WithAddress(uint8(address)), shdlc.WithLogger(l)}
	if c.FrameDelay > 0 {
		opts = append(opts, shdlc.WithFrameDelay(c.FrameDelay))
	}

	return opts, nil
}

// MultiOptions returns the options of the MultiChannel grouping the channels.
func (c *Config) MultiOptions(l logger.Logger) ([]channel.MultiOption, error) {
	mode, err := c.Fanout.ParseMode()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return []channel.MultiOption{channel.WithMode(mode), channel.WithLogger(l)}, nil
}

// I2CBusFunc returns the bus serving the channel of the device at address.
type I2CBusFunc func(address uint16) (i2c.Bus, error)

// ShdlcPortFunc returns the port serving the channel of the device at address.
type ShdlcPortFunc func(address uint8) (shdlc.Port, error)

// BuildMultiChannel creates one channel per configured address and groups them.
// Only the function matching the channel kind is used.
func (c *Config) BuildMultiChannel(buses I2CBusFunc, ports ShdlcPortFunc, l logger.Logger) (*channel.MultiChannel, error) {
	channels := make([]channel.Channel, 0, len(c.Channel.Addresses))
	closeAll := func() {
		for _, ch := range channels {
			_ = channel.Close(ch)
		}
	}

	for _, addr := range c.Channel.Addresses {
		ch, err := c.buildChannel(addr, buses, ports, l)
		if err != nil {
			closeAll()
			return nil, err
		}
		channels = append(channels, ch)
	}

	opts, err := c.MultiOptions(l)
	if err != nil {
		closeAll()
		return nil, err
	}

	return channel.NewMultiChannel(channels, opts...)
}

func (c *Config) buildChannel(addr uint16, buses I2CBusFunc, ports ShdlcPortFunc, l logger.Logger) (channel.Channel, error) {
	switch c.Channel.Kind {
	case KindI2C:
		if buses == nil {
			return nil, errors.New("config: no i2c bus provider")
		}
		bus, err := buses(addr)
		if err != nil {
			return nil, fmt.Errorf("config: i2c bus for 0x%02X: %w", addr, err)
		}

		ch, err := i2c.New(bus, addr, c.Channel.I2COptions(l)...)
		if err != nil {
			_ = channel.Close(bus)
			return nil, err
		}

		return ch, nil
	case KindShdlc:
		if ports == nil {
			return nil, errors.New("config: no shdlc port provider")
		}
		opts, err := c.Channel.ShdlcOptions(addr, l)
		if err != nil {
			return nil, err
		}
		port, err := ports(uint8(addr))
		if err != nil {
			return nil, fmt.Errorf("config: shdlc port for 0x%02X: %w", addr, err)
		}

		ch, err := shdlc.New(port, opts...)
		if err != nil {
			_ = channel.Close(port)
			return nil, err
		}

		return ch, nil
	default:
		return nil, fmt.Errorf("config: unknown channel kind %q", c.Channel.Kind)
	}
}
