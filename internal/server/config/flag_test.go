package config

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-p", "9090", "-e", "production", "-l", "debug", "-g", ":6000", "-s", "redis"},
			expected: &Config{
				Port:           9090,
				Environment:    "production",
				Log:            LogConfig{Level: "debug"},
				GRPCHealthAddr: ":6000",
				RateLimit:      RateLimitConfig{Store: "redis"},
			},
		},
		{
			name:     "foreign flags ignored",
			args:     []string{"cmd", "-config", "x.yaml", "-v"},
			expected: &Config{},
		},
		{
			name:    "bad port",
			args:    []string{"cmd", "-p", "eighty"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := os.Args
			t.Cleanup(func() { os.Args = orig })
			os.Args = tt.args

			config := &Config{}
			err := parseFlags(config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
