package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/sbilibin2017/telemetry-sidecar/internal/configs"
)

// fileConfig mirrors configs.SidecarConfig with optional fields so that a
// JSON config file only fills what it names.
type fileConfig struct {
	SocketPath       *string `json:"socket_path,omitempty"`
	DatabaseURL      *string `json:"database_url,omitempty"`
	MigrationsDir    *string `json:"migrations_dir,omitempty"`
	PublishInterval  *int    `json:"publish_interval,omitempty"`
	CollectorAddress *string `json:"collector_address,omitempty"`
	Key              *string `json:"key,omitempty"`
	AdminAddress     *string `json:"admin_address,omitempty"`
	TrustedSubnet    *string `json:"trusted_subnet,omitempty"`
	LogLevel         *string `json:"log_level,omitempty"`
}

// parseFlags builds the sidecar configuration from args, the optional JSON
// config file and the environment. Environment variables win over flags,
// explicitly set flags win over the config file.
func parseFlags(args []string) (*configs.SidecarConfig, error) {
	fs := pflag.NewFlagSet("sidecar", pflag.ContinueOnError)

	var (
		socketPath       string
		databaseURL      string
		migrationsDir    string
		publishInterval  int
		collectorAddress string
		key              string
		adminAddress     string
		trustedSubnet    string
		logLevel         string
		configFilePath   string
	)

	fs.StringVarP(&socketPath, "socket", "s", configs.DefaultSocketPath, "unix domain socket producers write metrics to")
	fs.StringVarP(&databaseURL, "database-url", "d", configs.DefaultDatabaseURL, "SQLite path or postgres:// URL of the metric queue")
	fs.StringVarP(&migrationsDir, "migrations-dir", "m", configs.DefaultMigrationsDir, "directory with per-dialect queue migrations")
	fs.IntVarP(&publishInterval, "publish-interval", "i", configs.DefaultPublishInterval, "seconds between publishing ticks")
	fs.StringVarP(&collectorAddress, "collector-address", "a", "", "collector address (http://, https:// or grpc://), empty logs metrics")
	fs.StringVarP(&key, "key", "k", "", "key for SHA256 request signing")
	fs.StringVar(&adminAddress, "admin-address", configs.DefaultAdminAddress, "admin HTTP listen address, empty disables")
	fs.StringVarP(&trustedSubnet, "trusted-subnet", "t", "", "trusted subnet in CIDR notation for the admin server")
	fs.StringVarP(&logLevel, "log-level", "l", configs.DefaultLogLevel, "log level")
	fs.StringVarP(&configFilePath, "config", "c", "", "path to JSON config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.New("unknown flags or arguments are provided")
	}

	if env := os.Getenv("CONFIG"); env != "" {
		configFilePath = env
	}

	if configFilePath != "" {
		cfgBytes, err := os.ReadFile(configFilePath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		var cfg fileConfig
		if err := json.Unmarshal(cfgBytes, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config JSON: %w", err)
		}

		fillString(fs, "socket", &socketPath, cfg.SocketPath)
		fillString(fs, "database-url", &databaseURL, cfg.DatabaseURL)
		fillString(fs, "migrations-dir", &migrationsDir, cfg.MigrationsDir)
		fillString(fs, "collector-address", &collectorAddress, cfg.CollectorAddress)
		fillString(fs, "key", &key, cfg.Key)
		fillString(fs, "admin-address", &adminAddress, cfg.AdminAddress)
		fillString(fs, "trusted-subnet", &trustedSubnet, cfg.TrustedSubnet)
		fillString(fs, "log-level", &logLevel, cfg.LogLevel)
		if !fs.Changed("publish-interval") && cfg.PublishInterval != nil {
			publishInterval = *cfg.PublishInterval
		}
	}

	if env := os.Getenv("METRICS_UNIX_DOMAIN_SOCKET_PATH"); env != "" {
		socketPath = env
	}
	if env := os.Getenv("DATABASE_URL"); env != "" {
		databaseURL = env
	}
	if env := os.Getenv("MIGRATIONS_DIR"); env != "" {
		migrationsDir = env
	}
	if env := os.Getenv("PUBLISH_INTERVAL"); env != "" {
		val, err := strconv.Atoi(env)
		if err != nil {
			return nil, errors.New("invalid PUBLISH_INTERVAL: must be an integer")
		}
		publishInterval = val
	}
	if env := os.Getenv("COLLECTOR_ADDRESS"); env != "" {
		collectorAddress = env
	}
	if env := os.Getenv("KEY"); env != "" {
		key = env
	}
	if env := os.Getenv("ADMIN_ADDRESS"); env != "" {
		adminAddress = env
	}
	if env := os.Getenv("TRUSTED_SUBNET"); env != "" {
		trustedSubnet = env
	}
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		logLevel = env
	}

	if publishInterval <= 0 {
		return nil, fmt.Errorf("invalid publish interval %d: must be a positive number of seconds", publishInterval)
	}

	return configs.NewSidecarConfig(
		configs.WithSocketPath(socketPath),
		configs.WithDatabaseURL(databaseURL),
		configs.WithMigrationsDir(migrationsDir),
		configs.WithPublishInterval(publishInterval),
		configs.WithCollectorAddress(collectorAddress),
		configs.WithKey(key),
		configs.WithAdminAddress(adminAddress),
		configs.WithTrustedSubnet(trustedSubnet),
		configs.WithLogLevel(logLevel),
	)
}

// fillString copies a config file value into dst unless the flag was set explicitly.
func fillString(fs *pflag.FlagSet, name string, dst *string, value *string) {
	if !fs.Changed(name) && value != nil {
		*dst = *value
	}
}
