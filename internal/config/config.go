// Package config loads the board server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is read once at startup and treated as immutable afterwards.
type Config struct {
	Port        string
	DatabaseURL string
	StoreDriver string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	DBMaxOpen     int
	DBMaxIdle     int
	DBMaxLifetime time.Duration

	LogLevel        slog.Level
	CookieSecure    bool
	RateLimitPerMin int
	MigrateOnStart  bool
}

// Load builds a Config from environment variables. Every missing required
// variable is reported in a single error.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getenv("PORT", "4000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StoreDriver: strings.ToLower(getenv("STORE_DRIVER", StorePostgres)),

		AccessSecret:  os.Getenv("ACCESS_SECRET"),
		RefreshSecret: os.Getenv("REFRESH_SECRET"),
	}

	var missing []string
	if cfg.AccessSecret == "" {
		missing = append(missing, "ACCESS_SECRET")
	}
	if cfg.RefreshSecret == "" {
		missing = append(missing, "REFRESH_SECRET")
	}

	if cfg.AccessSecret != "" && cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("config: ACCESS_SECRET and REFRESH_SECRET must differ")
	}

	switch cfg.StoreDriver {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("config: unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.AccessTTL, err = ParseTTL(getenv("ACCESS_TTL", "15m")); err != nil {
		return nil, fmt.Errorf("config: ACCESS_TTL: %w", err)
	}
	if cfg.RefreshTTL, err = ParseTTL(getenv("REFRESH_TTL", "720h")); err != nil {
		return nil, fmt.Errorf("config: REFRESH_TTL: %w", err)
	}

	if cfg.DBMaxOpen, err = getenvInt("DB_MAX_OPEN", 25); err != nil {
		return nil, err
	}
	if cfg.DBMaxIdle, err = getenvInt("DB_MAX_IDLE", 25); err != nil {
		return nil, err
	}
	lifetime, err := getenvInt("DB_MAX_LIFETIME", 300) // seconds
	if err != nil {
		return nil, err
	}
	cfg.DBMaxLifetime = time.Duration(lifetime) * time.Second

	if cfg.RateLimitPerMin, err = getenvInt("RATE_LIMIT_PER_MIN", 120); err != nil {
		return nil, err
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	if cfg.CookieSecure, err = getenvBool("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart, err = getenvBool("MIGRATE_ON_START", true); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseTTL parses TTLs such as "15m", "1h", "20s"; a bare number means minutes.
// An empty string yields the 15 minute default.
func ParseTTL(ttlStr string) (time.Duration, error) {
	if ttlStr == "" {
		return 15 * time.Minute, nil
	}

	if strings.HasSuffix(ttlStr, "m") ||
		strings.HasSuffix(ttlStr, "h") ||
		strings.HasSuffix(ttlStr, "s") {
		return time.ParseDuration(ttlStr)
	}

	min, err := strconv.Atoi(ttlStr)
	if err != nil {
		return 0, err
	}
	return time.Duration(min) * time.Minute, nil
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s must be a boolean: %w", key, err)
	}
	return b, nil
}
