// Package config holds runtime settings for the sync worker binary.
package config

import "time"

// Config holds runtime settings for the sync worker.
//
// Fields:
//   - CacheDSN: sqlite DSN of the local cache database.
//   - TokenSecret: HMAC secret used to validate session access tokens.
//   - MetricsAddr: optional host:port for the prometheus endpoint; empty
//     disables exposition.
//   - S3*: settings of the S3-compatible remote store. An empty bucket
//     selects the in-memory store (local development and tests).
//   - ShutdownTimeout: grace period for the metrics server on exit.
type Config struct {
	CacheDSN    string
	TokenSecret string
	MetricsAddr string

	S3Region       string
	S3BaseEndpoint string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string

	// Interactive makes the binary prompt for credentials on startup and
	// run an initial load before serving messages. Development flow only;
	// host applications supply the session inside the load message instead.
	Interactive bool

	ShutdownTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.CacheDSN = "mediasync.db"
	c.TokenSecret = "dev-secret"
	c.S3Region = "us-east-1"
	c.ShutdownTimeout = 5 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
