// Package config loads the TOML-encoded settings that size and instrument a
// pl0 run: scanner identifier/number limits, VM execution limits, and trace
// output, mirroring the struct-of-structs + toml tag shape the arm-emulator
// example in the pack uses for its own configuration layer.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the set of settings loaded for a pl0 run. Of these, only
// Execution.MaxStackHeight is applied (by pl0.Run); the scanner limits,
// Execution.MaxCodeLength and the Trace settings are loaded and saved but
// not read by the scanner, the VM or cmd/pl0.
type Config struct {
	Scanner struct {
		MaxIdentifierLength int `toml:"max_identifier_length"`
		MaxNumberLength     int `toml:"max_number_length"`
	} `toml:"scanner"`

	Execution struct {
		MaxStackHeight int `toml:"max_stack_height"`
		MaxCodeLength  int `toml:"max_code_length"`
	} `toml:"execution"`

	Trace struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"`
	} `toml:"trace"`
}

// DefaultConfig returns the standard defaults: 11-character identifiers,
// 5-digit numbers, a 2000-cell stack, and a 500-instruction code limit,
// with tracing off.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Scanner.MaxIdentifierLength = 11
	cfg.Scanner.MaxNumberLength = 5
	cfg.Execution.MaxStackHeight = 2000
	cfg.Execution.MaxCodeLength = 500
	cfg.Trace.Enabled = false
	cfg.Trace.OutputFile = ""
	return cfg
}

// Load loads configuration from "pl0.toml" in the current directory,
// falling back to DefaultConfig if the file does not exist.
func Load() (*Config, error) {
	return LoadFrom("pl0.toml")
}

// LoadFrom loads configuration from path, starting from the default
// configuration and overlaying whatever keys the file sets.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config file %q", path)
	}
	return cfg, nil
}

// Save writes cfg to path in TOML form.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create config file %q", path)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return errors.Wrapf(err, "encode config file %q", path)
	}
	return nil
}
