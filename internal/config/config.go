// Package config layers environment-variable overrides on top of the
// DB-resident tuning parameters (the `parametro` table is still the
// primary source; this only covers the handful of settings that exist
// before a database connection does).
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the process-level configuration cmd/alocador reads before it
// can open a store.SQL connection at all.
type Config struct {
	// DatabaseURL is the postgres DSN. Required.
	DatabaseURL string
	// Timeout bounds the solve via context; it has no bearing on whether
	// a solve is correct, only on whether it finishes. Zero means no
	// deadline.
	Timeout time.Duration
}

// Load reads DATABASE_URL and ALOCADOR_TIMEOUT from the environment via
// viper. It returns a partially-populated Config alongside a DATABASE_URL
// error, so a caller that has another way to obtain the DSN (e.g. a
// positional CLI argument) can still use the Timeout this resolved.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetDefault("ALOCADOR_TIMEOUT", "0s")

	timeout, err := time.ParseDuration(v.GetString("ALOCADOR_TIMEOUT"))
	if err != nil {
		return Config{}, fmt.Errorf("config: parsing ALOCADOR_TIMEOUT: %w", err)
	}
	cfg := Config{Timeout: timeout}

	dsn := v.GetString("DATABASE_URL")
	if dsn == "" {
		return cfg, fmt.Errorf("config: DATABASE_URL is required")
	}
	cfg.DatabaseURL = dsn

	return cfg, nil
}
