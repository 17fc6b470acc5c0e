package main

import (
	"errors"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/sbilibin2017/telemetry-sidecar/internal/configs"
)

func parseFlags(args []string) (*configs.LoadgenConfig, error) {
	fs := pflag.NewFlagSet("loadgen", pflag.ContinueOnError)

	var (
		socketPath   string
		interval     int
		badLineEvery int
		batches      int
		logLevel     string
	)

	fs.StringVarP(&socketPath, "socket", "s", configs.DefaultSocketPath, "sidecar unix domain socket")
	fs.IntVarP(&interval, "interval", "i", configs.DefaultLoadgenInterval, "seconds between batches")
	fs.IntVarP(&badLineEvery, "bad-line-every", "b", configs.DefaultBadLineEvery, "send a malformed line every N lines, 0 disables")
	fs.IntVarP(&batches, "batches", "n", 0, "number of batches to send, 0 runs until interrupted")
	fs.StringVarP(&logLevel, "log-level", "l", configs.DefaultLogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.New("unknown flags or arguments are provided")
	}

	if env := os.Getenv("METRICS_UNIX_DOMAIN_SOCKET_PATH"); env != "" {
		socketPath = env
	}
	if env := os.Getenv("LOADGEN_INTERVAL"); env != "" {
		val, err := strconv.Atoi(env)
		if err != nil {
			return nil, errors.New("invalid LOADGEN_INTERVAL: must be an integer")
		}
		interval = val
	}
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		logLevel = env
	}

	if interval <= 0 {
		return nil, errors.New("interval must be a positive number of seconds")
	}

	return configs.NewLoadgenConfig(
		configs.WithLoadgenSocketPath(socketPath),
		configs.WithLoadgenInterval(interval),
		configs.WithBadLineEvery(badLineEvery),
		configs.WithBatches(batches),
		configs.WithLoadgenLogLevel(logLevel),
	)
}
