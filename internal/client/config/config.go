package config

import "time"

// Config holds runtime settings for the LexBridge CLI.
//
// Fields:
//   - ServerURL: base URL of the REST API, including the /api prefix.
//   - DatabaseFile: SQLite file holding tokens, role and the cached session.
//   - RequestTimeout: per-request HTTP timeout.
//   - LogFile: where client logs go; the terminal stays clean.
type Config struct {
	ServerURL      string
	DatabaseFile   string
	RequestTimeout time.Duration
	LogFile        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000/api"
	c.DatabaseFile = "lexbridge.db"
	c.RequestTimeout = 30 * time.Second
	c.LogFile = "lexbridge-cli.log"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
