package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/lexbridge/internal/flagx"
	"github.com/dmitrijs2005/lexbridge/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify the timeout either as
// a string like "30s" or as integer nanoseconds.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	DatabaseFile   string         `json:"database_file"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	LogFile        string         `json:"log_file"`
}

// parseJson overlays Config with values loaded from the file named by -c or
// -config. Keys absent from the file keep their current value. Read or
// unmarshal errors panic.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.DatabaseFile != "" {
		cfg.DatabaseFile = jc.DatabaseFile
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogFile != "" {
		cfg.LogFile = jc.LogFile
	}
}
