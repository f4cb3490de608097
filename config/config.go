// Package config loads runtime settings from LASTREP_* environment
// variables. Command-line flags override what it returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/nathoo/lastrep/engine/rng"
)

// ErrBadWorkers is returned when LASTREP_SIM_WORKERS is below one.
var ErrBadWorkers = errors.New("config: LASTREP_SIM_WORKERS must be at least 1")

// Config holds the process settings.
type Config struct {
	Seed        int64  `env:"LASTREP_SEED" envDefault:"0"` // 0 draws a random seed
	LogLevel    string `env:"LASTREP_LOG_LEVEL" envDefault:"info"`
	LogEncoding string `env:"LASTREP_LOG_ENCODING" envDefault:"console"`
	LogFile     string `env:"LASTREP_LOG_FILE"`
	Ledger      string `env:"LASTREP_LEDGER" envDefault:"lastrep-sim.sqlite"`
	SimWorkers  int    `env:"LASTREP_SIM_WORKERS" envDefault:"4"`
}

// Load reads the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.SimWorkers < 1 {
		return Config{}, ErrBadWorkers
	}
	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile()
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// DefaultLogFile is where play mode logs when LASTREP_LOG_FILE is unset.
// The TUI owns the terminal, so logs never go to stdout.
func DefaultLogFile() string {
	return filepath.Join(os.TempDir(), "lastrep.log")
}

// ResolveSeed returns the configured seed, or a fresh random one when the
// configured seed is zero.
func (c Config) ResolveSeed() (int64, error) {
	if c.Seed != 0 {
		return c.Seed, nil
	}
	return rng.NewSeed()
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
