package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete simulator configuration.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Gateway GatewayConfig `yaml:"gateway"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// DeviceConfig contains the client instance parameters.
type DeviceConfig struct {
	DeviceID        uint64 `yaml:"device_id"`
	QueueCapacity   int    `yaml:"queue_capacity"`
	MaxStreams      int    `yaml:"max_streams"`
	CommandsPerPoll int    `yaml:"commands_per_poll"`
	ScratchSize     int    `yaml:"scratch_size"`
}

// GatewayConfig contains the UDP gateway endpoint and poll cadence.
type GatewayConfig struct {
	Address      string `yaml:"address"`
	BindAddress  string `yaml:"bind_address"`
	PollInterval int    `yaml:"poll_interval_ms"`
}

// MetricsConfig contains the Prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs validation of the configuration.
func (c *Config) Validate() error {
	if err := c.Device.Validate(); err != nil {
		return fmt.Errorf("device config: %w", err)
	}

	if err := c.Gateway.Validate(); err != nil {
		return fmt.Errorf("gateway config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates device configuration.
func (d *DeviceConfig) Validate() error {
	if d.DeviceID == 0 {
		return fmt.Errorf("device_id cannot be zero")
	}

	if d.QueueCapacity < 1 {
		return fmt.Errorf("queue_capacity must be at least 1, got %d", d.QueueCapacity)
	}

	if d.MaxStreams < 1 {
		return fmt.Errorf("max_streams must be at least 1, got %d", d.MaxStreams)
	}

	if d.CommandsPerPoll < 1 {
		return fmt.Errorf("commands_per_poll must be at least 1, got %d", d.CommandsPerPoll)
	}

	if d.ScratchSize < 520 {
		return fmt.Errorf("scratch_size must be at least 520 bytes, got %d", d.ScratchSize)
	}

	return nil
}

// Validate validates gateway configuration.
func (g *GatewayConfig) Validate() error {
	if g.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if g.PollInterval < 1 {
		return fmt.Errorf("poll_interval_ms must be at least 1, got %d", g.PollInterval)
	}

	return nil
}

// Validate validates metrics configuration.
func (m *MetricsConfig) Validate() error {
	if m.Enabled && m.Address == "" {
		return fmt.Errorf("address cannot be empty when metrics are enabled")
	}

	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetPollInterval returns the poll cadence as a time.Duration.
func (g *GatewayConfig) GetPollInterval() time.Duration {
	return time.Duration(g.PollInterval) * time.Millisecond
}
