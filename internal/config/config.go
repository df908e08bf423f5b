// Package config loads recipekeeper settings from defaults, an optional JSON
// file and command-line flags, in that order.
package config

import "time"

// Config holds runtime settings.
//
// Fields:
//   - DatabaseDSN: postgres:// or postgresql:// URLs select PostgreSQL (pgx);
//     anything else is treated as a SQLite path or DSN.
//   - SecretKey: HMAC secret for signing access tokens (HS256).
//   - AccessTokenValidityDuration: access token lifetime.
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint:
//     object storage for recipe images.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	S3RootUser                  string
	S3RootPassword              string
	S3Bucket                    string
	S3Region                    string
	S3BaseEndpoint              string
	LogLevel                    string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret and S3 credentials are insecure outside development.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "data/recipekeeper.db"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 60 * time.Minute
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "recipes"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.LogLevel = "info"
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// the short flags found in args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
