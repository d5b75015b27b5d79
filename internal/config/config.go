// Package config defines the mdb configuration and loads it through viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables overriding configuration keys,
// e.g. MDB_DATA_DIR or MDB_RATE_LIMITS_WRITE_PER_MIN.
const EnvPrefix = "MDB"

// Config is the complete process configuration.
type Config struct {
	// DataDir is the directory holding one JSON file per table.
	DataDir string `mapstructure:"data_dir"`
	// HTTP is the listen address of the web server.
	HTTP     string `mapstructure:"http"`
	LogLevel string `mapstructure:"log_level"`
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxRequestBodyBytes caps request bodies. 0 disables the cap.
	MaxRequestBodyBytes int64 `mapstructure:"max_request_body_bytes"`
	// AdminPasswordHash is a bcrypt hash. When set, mutating requests require
	// HTTP basic auth as user "admin".
	AdminPasswordHash string     `mapstructure:"admin_password_hash"`
	RateLimits        RateLimits `mapstructure:"rate_limits"`
}

// RateLimits defines rate limiting of mutating requests, per client IP.
type RateLimits struct {
	// WritePerMin limits POST requests. 0 means unlimited.
	WritePerMin int `mapstructure:"write_per_min"`
	// WriteBurst is the bucket size. 0 means WritePerMin.
	WriteBurst int `mapstructure:"write_burst"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DataDir:             "data",
		HTTP:                "localhost:5000",
		LogLevel:            "info",
		ShutdownTimeout:     5 * time.Second,
		MaxRequestBodyBytes: 1 << 20,
		RateLimits: RateLimits{
			WritePerMin: 60,
		},
	}
}

// SetDefaults registers every key's default value on v so that environment
// variables can override keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("http", d.HTTP)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("max_request_body_bytes", d.MaxRequestBodyBytes)
	v.SetDefault("admin_password_hash", d.AdminPasswordHash)
	v.SetDefault("rate_limits.write_per_min", d.RateLimits.WritePerMin)
	v.SetDefault("rate_limits.write_burst", d.RateLimits.WriteBurst)
}

// SetupEnv makes v read MDB_* environment variables.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.HTTP == "" {
		errs = append(errs, errors.New("http is required"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be > 0"))
	}
	if c.MaxRequestBodyBytes < 0 {
		errs = append(errs, errors.New("max_request_body_bytes must be non-negative"))
	}
	if c.AdminPasswordHash != "" && !strings.HasPrefix(c.AdminPasswordHash, "$2") {
		errs = append(errs, errors.New("admin_password_hash must be a bcrypt hash"))
	}
	if err := c.RateLimits.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.WritePerMin < 0 {
		return errors.New("rate_limits.write_per_min must be non-negative")
	}
	if r.WriteBurst < 0 {
		return errors.New("rate_limits.write_burst must be non-negative")
	}
	return nil
}
