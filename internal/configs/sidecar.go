package configs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sbilibin2017/telemetry-sidecar/internal/configs/address"
)

// Sidecar defaults.
const (
	DefaultSocketPath      = "/tmp/metrics.sock"
	DefaultDatabaseURL     = "sidecar.db"
	DefaultMigrationsDir   = "migrations"
	DefaultPublishInterval = 10
	DefaultAdminAddress    = "localhost:8081"
	DefaultLogLevel        = "info"
)

// SidecarConfig holds configuration settings for the sidecar.
type SidecarConfig struct {
	SocketPath       string `json:"socket_path"`       // Unix domain socket producers connect to
	DatabaseURL      string `json:"database_url"`      // SQLite path or postgres:// URL of the queue
	MigrationsDir    string `json:"migrations_dir"`    // Root of the per-dialect migration directories
	PublishInterval  int    `json:"publish_interval"`  // Seconds between publishing ticks
	CollectorAddress string `json:"collector_address"` // Collector URL, empty logs metrics instead
	Key              string `json:"key"`               // HMAC key for HTTP forwarding, empty disables signing
	AdminAddress     string `json:"admin_address"`     // Admin HTTP listen address, empty disables the server
	TrustedSubnet    string `json:"trusted_subnet"`    // CIDR allowed to reach the admin server
	LogLevel         string `json:"log_level"`         // zap log level
}

// SidecarConfigOpt defines a function type for applying options to SidecarConfig.
type SidecarConfigOpt func(*SidecarConfig) error

// NewSidecarConfig creates a SidecarConfig from the defaults, applies opts
// and validates the result.
func NewSidecarConfig(opts ...SidecarConfigOpt) (*SidecarConfig, error) {
	cfg := &SidecarConfig{
		SocketPath:      DefaultSocketPath,
		DatabaseURL:     DefaultDatabaseURL,
		MigrationsDir:   DefaultMigrationsDir,
		PublishInterval: DefaultPublishInterval,
		AdminAddress:    DefaultAdminAddress,
		LogLevel:        DefaultLogLevel,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the sidecar cannot start with.
func (cfg *SidecarConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(cfg.SocketPath) == "" {
		errs = append(errs, errors.New("socket path is required"))
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		errs = append(errs, errors.New("database url is required"))
	}
	if cfg.PublishInterval <= 0 {
		errs = append(errs, fmt.Errorf("publish interval must be positive, got %d", cfg.PublishInterval))
	}
	if _, err := address.New(cfg.CollectorAddress); err != nil {
		errs = append(errs, fmt.Errorf("collector address: %w", err))
	}
	return errors.Join(errs...)
}

// Interval returns the publishing interval as a duration.
func (cfg *SidecarConfig) Interval() time.Duration {
	return time.Duration(cfg.PublishInterval) * time.Second
}

// WithSocketPath sets the SocketPath field to the first non-empty value.
func WithSocketPath(paths ...string) SidecarConfigOpt {
	return func(cfg *SidecarConfig) error {
		for _, p := range paths {
			if strings.TrimSpace(p) != "" {
				cfg.SocketPath = p
				break
			}
		}
		return nil
	}
}

// WithDatabaseURL sets the DatabaseURL field to the first non-empty value.
func WithDatabaseURL(urls ...string) SidecarConfigOpt {
	return func(cfg *SidecarConfig) error {
		for _, u := range urls {
			if strings.TrimSpace(u) != "" {
				cfg.DatabaseURL = u
				break
			}
		}
		return nil
	}
}

// WithMigrationsDir sets the MigrationsDir field to the first non-empty value.
func WithMigrationsDir(dirs ...string) SidecarConfigOpt {
	return func(cfg *SidecarConfig) error {
		for _, d := range dirs {
			if strings.TrimSpace(d) != "" {
				cfg.MigrationsDir = d
				break
			}
		}
		return nil
	}
}

// WithPublishInterval sets the PublishInterval field to the first positive value.
func WithPublishInterval(intervals ...int) SidecarConfigOpt {
	return func(cfg *SidecarConfig) error {
		for _, interval := range intervals {
			if interval > 0 {
				cfg.PublishInterval = interval
				break
			}
		}
		return nil
	}
}

// WithCollectorAddress sets the collector address. An empty address selects the log sink.
func WithCollectorAddress(addr string) SidecarConfigOpt {
	return func(cfg *SidecarConfig) error {
		cfg.CollectorAddress = strings.TrimSpace(addr)
		return nil
	}
}

// WithKey sets the HMAC signing key.
func WithKey(key string) SidecarConfigOpt {
	return func(cfg *SidecarConfig) error {
		cfg.Key = key
		return nil
	}
}

// WithAdminAddress sets the admin server address. An empty address disables it.
func WithAdminAddress(addr string) SidecarConfigOpt {
	return func(cfg *SidecarConfig) error {
		cfg.AdminAddress = strings.TrimSpace(addr)
		return nil
	}
}

// WithTrustedSubnet sets the CIDR allowed to reach the admin server.
func WithTrustedSubnet(cidr string) SidecarConfigOpt {
	return func(cfg *SidecarConfig) error {
		cfg.TrustedSubnet = strings.TrimSpace(cidr)
		return nil
	}
}

// WithLogLevel sets the LogLevel field to the first non-empty value.
func WithLogLevel(levels ...string) SidecarConfigOpt {
	return func(cfg *SidecarConfig) error {
		for _, l := range levels {
			if strings.TrimSpace(l) != "" {
				cfg.LogLevel = l
				break
			}
		}
		return nil
	}
}
