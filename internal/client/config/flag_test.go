package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8000/api", c.ServerURL)
	assert.Equal(t, "lexbridge.db", c.DatabaseFile)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
}

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd", "-a", "http://api:8000/api", "-f", "x.db", "-t", "5"},
			expected: &Config{ServerURL: "http://api:8000/api", DatabaseFile: "x.db", RequestTimeout: 5 * time.Second}},
		{name: "subcommand flags ignored", args: []string{"cmd", "cases", "create", "--title", "t", "-t", "7"},
			expected: &Config{RequestTimeout: 7 * time.Second}},
		{name: "bad timeout", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestLoadConfig_DefaultsWithoutArgs(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"lexbridge"}

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *LoadConfig())
}
