// Package config provides JSON-backed run configuration for the emulator
// core: load from file with sane defaults when absent, save back to disk.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the options a headless run needs: whether to trace, where
// to write it, how to handle unknown opcodes, and an optional stop PC for
// conformance runs.
type Config struct {
	Trace         bool    `json:"trace"`
	TraceFile     string  `json:"trace_file"`
	TraceVerbose  bool    `json:"trace_verbose"`
	UnknownOpcode string  `json:"unknown_opcode"` // "panic" | "nop"
	StopPC        *uint16 `json:"stop_pc,omitempty"`

	configPath string
}

// New returns a Config with default values: no tracing, and unknown
// opcodes treated as NOP to maximize test-ROM coverage.
func New() *Config {
	return &Config{
		Trace:         false,
		TraceFile:     "",
		UnknownOpcode: "nop",
	}
}

// LoadFromFile reads and parses a JSON config file. A missing file is not
// an error: New()'s defaults are written out and used instead, matching
// app.Config.LoadFromFile's "create if absent" behavior.
func LoadFromFile(path string) (*Config, error) {
	cfg := New()
	cfg.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cfg.SaveToFile(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the config as indented JSON.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	c.configPath = path
	return nil
}

func (c *Config) validate() error {
	switch c.UnknownOpcode {
	case "", "nop":
		c.UnknownOpcode = "nop"
	case "panic":
	default:
		return fmt.Errorf("unknown_opcode %q must be %q or %q", c.UnknownOpcode, "nop", "panic")
	}
	return nil
}
