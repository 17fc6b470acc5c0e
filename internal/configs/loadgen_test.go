package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoadgenConfig(t *testing.T) {
	tests := []struct {
		name     string
		opts     []LoadgenConfigOpt
		expected LoadgenConfig
	}{
		{
			name: "no options - use defaults",
			expected: LoadgenConfig{
				SocketPath:   "/tmp/metrics.sock",
				Interval:     1,
				BadLineEvery: 10,
				LogLevel:     "info",
			},
		},
		{
			name: "custom values",
			opts: []LoadgenConfigOpt{
				WithLoadgenSocketPath("", "/run/metrics.sock"),
				WithLoadgenInterval(0, 5),
				WithBadLineEvery(0),
				WithBatches(3),
				WithLoadgenLogLevel("debug"),
			},
			expected: LoadgenConfig{
				SocketPath:   "/run/metrics.sock",
				Interval:     5,
				BadLineEvery: 0,
				Batches:      3,
				LogLevel:     "debug",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewLoadgenConfig(tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *cfg)
		})
	}
}

func TestNewLoadgenConfig_Errors(t *testing.T) {
	_, err := NewLoadgenConfig(WithBadLineEvery(-1))
	assert.Error(t, err)

	_, err = NewLoadgenConfig(WithBatches(-2))
	assert.Error(t, err)
}

func TestLoadgenConfig_Period(t *testing.T) {
	cfg, err := NewLoadgenConfig(WithLoadgenInterval(2))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Period())
}
