// Package config reads the loader's environment configuration. A local .env
// file is honored when present but never overrides variables already set in
// the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything a load run needs from the environment.
type Config struct {
	// DatabaseURL is the DSN handed to the selected store backend.
	DatabaseURL string
	// StoreKind selects the registered backend: postgres, sqlite or mssql.
	StoreKind string

	VISBaseURL string
	VISTimeout time.Duration

	// TruncateRaw clears all raw tables before loading (clean-slate runs).
	TruncateRaw bool

	// Season filters the tournament list, e.g. "2025". Empty loads all.
	Season string

	// Limits cap how much of each feed a run ingests. Zero means unlimited.
	LimitTournaments     int
	LimitMatchesPerTourn int
	LimitResultsPerTourn int

	// Parallel enables the per-tournament fan-out; MaxWorkers sizes it.
	Parallel   bool
	MaxWorkers int

	LogLevel string

	// Datadog metrics. Disabled unless MetricsBackend is "datadog".
	MetricsBackend string
	MetricsJobName string
	MetricsTags    string
}

// FromEnv loads .env (if any) and assembles the Config. Only malformed
// values error; absent ones fall back to defaults.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StoreKind:      envDefault("STORE_KIND", "postgres"),
		VISBaseURL:     strings.TrimSpace(os.Getenv("VIS_BASE_URL")),
		Season:         strings.TrimSpace(os.Getenv("TOURNAMENT_SEASON")),
		LogLevel:       envDefault("LOG_LEVEL", "info"),
		MetricsBackend: strings.TrimSpace(os.Getenv("METRICS_BACKEND")),
		MetricsJobName: strings.TrimSpace(os.Getenv("METRICS_JOB")),
		MetricsTags:    strings.TrimSpace(os.Getenv("METRICS_TAGS")),
	}

	var err error
	if cfg.VISTimeout, err = envDuration("VIS_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TruncateRaw, err = envBool("TRUNCATE_RAW", false); err != nil {
		return Config{}, err
	}
	if cfg.Parallel, err = envBool("ETL_PARALLEL", true); err != nil {
		return Config{}, err
	}
	if cfg.MaxWorkers, err = envInt("ETL_MAX_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.LimitTournaments, err = envInt("LIMIT_TOURNAMENTS", 0); err != nil {
		return Config{}, err
	}
	if cfg.LimitMatchesPerTourn, err = envInt("LIMIT_MATCHES_PER_TOURNAMENT", 0); err != nil {
		return Config{}, err
	}
	if cfg.LimitResultsPerTourn, err = envInt("LIMIT_RESULTS_PER_TOURNAMENT", 0); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = strings.TrimSpace(os.Getenv("STORE_DSN"))
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is required")
	}
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	return cfg, nil
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	// Accept both bare seconds ("90") and Go durations ("90s").
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
