package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/lexbridge/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-d", "-s", "-t", "-r", "-u", "-p", "-b", "-n", "-e", "-o", "-l", "-m"}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-n string   S3 region
//	-e string   S3 base endpoint
//	-o string   OCR server URL
//	-l string   Ollama base URL
//	-m string   Ollama model
//
// Duration flags are integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "n", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.OCRServerURL, "o", config.OCRServerURL, "OCR server URL")
	fs.StringVar(&config.OllamaURL, "l", config.OllamaURL, "Ollama base URL")
	fs.StringVar(&config.OllamaModel, "m", config.OllamaModel, "Ollama model")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
}
