package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/lexbridge/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the REST API
//	-f string   local database file
//	-t int      request timeout in seconds
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, so cobra subcommand flags pass through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the LexBridge API")
	fs.StringVar(&cfg.DatabaseFile, "f", cfg.DatabaseFile, "local database file")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
