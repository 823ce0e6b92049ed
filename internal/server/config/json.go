package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/lexbridge/internal/flagx"
	"github.com/dmitrijs2005/lexbridge/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Durations
// accept both "30m" strings and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	OCRServerURL                 string         `json:"ocr_server_url"`
	OllamaURL                    string         `json:"ollama_url"`
	OllamaModel                  string         `json:"ollama_model"`
}

// parseJson overlays values from the file named by -c/-config. Keys absent
// from the file keep their current value. Unreadable or invalid files panic.
func parseJson(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.OCRServerURL, c.OCRServerURL)
	setString(&config.OllamaURL, c.OllamaURL)
	setString(&config.OllamaModel, c.OllamaModel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
