// Package config loads runtime configuration for the LexBridge CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the REST API
//	-f string   local SQLite database file
//	-t int      request timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8000/api",
//	  "database_file": "lexbridge.db",
//	  "request_timeout": "30s",
//	  "log_file": "lexbridge-cli.log"
//	}
package config
