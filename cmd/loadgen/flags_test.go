package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/telemetry-sidecar/internal/configs"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"METRICS_UNIX_DOMAIN_SOCKET_PATH", "LOADGEN_INTERVAL", "LOG_LEVEL"} {
		t.Setenv(name, "")
	}
}

func TestParseFlags(t *testing.T) {
	clearEnv(t)

	cfg, err := parseFlags([]string{"-s", "/run/metrics.sock", "-i", "2", "-b", "0", "-n", "5"})
	require.NoError(t, err)

	assert.Equal(t, "/run/metrics.sock", cfg.SocketPath)
	assert.Equal(t, 2, cfg.Interval)
	assert.Zero(t, cfg.BadLineEvery)
	assert.Equal(t, 5, cfg.Batches)
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := parseFlags(nil)
	require.NoError(t, err)

	assert.Equal(t, configs.DefaultSocketPath, cfg.SocketPath)
	assert.Equal(t, configs.DefaultLoadgenInterval, cfg.Interval)
	assert.Equal(t, configs.DefaultBadLineEvery, cfg.BadLineEvery)
	assert.Zero(t, cfg.Batches)
}

func TestParseFlags_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("METRICS_UNIX_DOMAIN_SOCKET_PATH", "/env/metrics.sock")
	t.Setenv("LOADGEN_INTERVAL", "3")

	cfg, err := parseFlags([]string{"-s", "/flag/metrics.sock"})
	require.NoError(t, err)

	assert.Equal(t, "/env/metrics.sock", cfg.SocketPath)
	assert.Equal(t, 3, cfg.Interval)
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  string
	}{
		{name: "negative bad line frequency", args: []string{"-b", "-1"}},
		{name: "negative batches", args: []string{"-n", "-2"}},
		{name: "zero interval", args: []string{"-i", "0"}},
		{name: "invalid interval env", env: "often"},
		{name: "positional argument", args: []string{"extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.env != "" {
				t.Setenv("LOADGEN_INTERVAL", tt.env)
			}

			_, err := parseFlags(tt.args)
			assert.Error(t, err)
		})
	}
}
