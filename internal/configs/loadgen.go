package configs

import (
	"errors"
	"strings"
	"time"
)

// Load generator defaults.
const (
	DefaultLoadgenInterval = 1
	DefaultBadLineEvery    = 10
)

// LoadgenConfig holds configuration parameters for the load generator.
type LoadgenConfig struct {
	SocketPath   string `json:"socket_path"`    // Sidecar ingest socket
	Interval     int    `json:"interval"`       // Seconds between batches
	BadLineEvery int    `json:"bad_line_every"` // Every Nth line is deliberately malformed, 0 disables
	Batches      int    `json:"batches"`        // Number of batches to send, 0 runs until stopped
	LogLevel     string `json:"log_level"`      // zap log level
}

// LoadgenConfigOpt defines a function type for applying configuration options to LoadgenConfig.
type LoadgenConfigOpt func(*LoadgenConfig) error

// NewLoadgenConfig creates a LoadgenConfig with the given options applied.
func NewLoadgenConfig(opts ...LoadgenConfigOpt) (*LoadgenConfig, error) {
	cfg := &LoadgenConfig{
		SocketPath:   DefaultSocketPath,
		Interval:     DefaultLoadgenInterval,
		BadLineEvery: DefaultBadLineEvery,
		LogLevel:     DefaultLogLevel,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Period returns the interval between batches.
func (cfg *LoadgenConfig) Period() time.Duration {
	return time.Duration(cfg.Interval) * time.Second
}

// WithLoadgenSocketPath sets the socket path to the first non-empty value.
func WithLoadgenSocketPath(paths ...string) LoadgenConfigOpt {
	return func(cfg *LoadgenConfig) error {
		for _, p := range paths {
			if strings.TrimSpace(p) != "" {
				cfg.SocketPath = p
				break
			}
		}
		return nil
	}
}

// WithLoadgenInterval sets the batch interval to the first positive value.
func WithLoadgenInterval(intervals ...int) LoadgenConfigOpt {
	return func(cfg *LoadgenConfig) error {
		for _, interval := range intervals {
			if interval > 0 {
				cfg.Interval = interval
				break
			}
		}
		return nil
	}
}

// WithBadLineEvery sets how often a malformed line is sent.
func WithBadLineEvery(n int) LoadgenConfigOpt {
	return func(cfg *LoadgenConfig) error {
		if n < 0 {
			return errors.New("bad line frequency must not be negative")
		}
		cfg.BadLineEvery = n
		return nil
	}
}

// WithBatches limits the number of batches.
func WithBatches(n int) LoadgenConfigOpt {
	return func(cfg *LoadgenConfig) error {
		if n < 0 {
			return errors.New("batch count must not be negative")
		}
		cfg.Batches = n
		return nil
	}
}

// WithLoadgenLogLevel sets the log level to the first non-empty value.
func WithLoadgenLogLevel(levels ...string) LoadgenConfigOpt {
	return func(cfg *LoadgenConfig) error {
		for _, l := range levels {
			if strings.TrimSpace(l) != "" {
				cfg.LogLevel = l
				break
			}
		}
		return nil
	}
}
