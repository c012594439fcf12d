// Package config loads and validates daemon configuration from an optional
// YAML file layered over built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mbezuidenhout/tasmota-gate/internal/gpio"
	"github.com/mbezuidenhout/tasmota-gate/internal/logic"
)

// Config is the daemon configuration. A negative pin disables the sensor
// entirely: the decoder stays inert and snapshots report Unknown/None.
type Config struct {
	Pin  int    `yaml:"pin"`
	Chip string `yaml:"chip"`

	PollMs      int `yaml:"poll_ms"`
	DebounceMs  int `yaml:"debounce_ms"`
	HeartbeatMs int `yaml:"heartbeat_ms"`

	// Device profile: the two observed controller firmware revisions blink
	// 9 short pulses for an obstruction with a 14-slot window, or 7 with a
	// 12-slot window.
	HistorySlots      int `yaml:"history_slots"`
	ObstructionPulses int `yaml:"obstruction_pulses"`

	// EdgeDriven selects per-edge GPIO event delivery instead of polling.
	EdgeDriven bool `yaml:"edge_driven"`

	Broker   string `yaml:"broker"`
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration for the primary observed device profile.
func Default() Config {
	return Config{
		Pin:               gpio.DefaultPin,
		Chip:              gpio.DefaultChip,
		PollMs:            50,
		DebounceMs:        int(logic.DefaultDebounceWindow),
		HeartbeatMs:       int(15 * 60 * 1000),
		HistorySlots:      logic.DefaultHistorySlots,
		ObstructionPulses: logic.DefaultObstructionPulses,
		Broker:            "tcp://192.168.1.200:1883",
		HTTPAddr:          ":80",
		LogLevel:          "info",
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the decoder cannot honor. Unknown
// obstruction counts mean an unsupported device profile: catching that here
// keeps device detection out of the decoder core.
func (c *Config) Validate() error {
	if c.PollMs <= 0 {
		return fmt.Errorf("poll_ms must be positive, got %d", c.PollMs)
	}
	if c.DebounceMs <= 0 {
		return fmt.Errorf("debounce_ms must be positive, got %d", c.DebounceMs)
	}
	if c.HistorySlots < logic.MinHistorySlots || c.HistorySlots%2 != 0 {
		return fmt.Errorf("history_slots must be even and at least %d, got %d",
			logic.MinHistorySlots, c.HistorySlots)
	}
	if c.ObstructionPulses != 7 && c.ObstructionPulses != 9 {
		return fmt.Errorf("obstruction_pulses must be 7 or 9 (supported device profiles), got %d",
			c.ObstructionPulses)
	}
	if c.HistorySlots < c.ObstructionPulses+3 {
		return fmt.Errorf("history_slots %d cannot hold a framing pulse plus %d blink pulses",
			c.HistorySlots, c.ObstructionPulses)
	}
	return nil
}

// Disabled reports whether the sensor is configured off.
func (c *Config) Disabled() bool {
	return c.Pin < 0
}
