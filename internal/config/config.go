// Package config loads the HTTP service settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings of the MoldQuote server.
type Config struct {
	Port            int
	DBPath          string
	LogLevel        string
	LogFormat       string
	PolicyPath      string // empty uses the default thresholds
	RateLimitRPS    float64
	RateLimitBurst  int
	JWTSecret       string // empty leaves mutating routes unauthenticated
	SeedPresets     bool
	ShutdownTimeout time.Duration
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:            8080,
		DBPath:          "moldquote.db",
		LogLevel:        "info",
		LogFormat:       "json",
		RateLimitRPS:    10,
		RateLimitBurst:  20,
		SeedPresets:     true,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// AuthEnabled reports whether mutating routes require a bearer token.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Load reads envFiles (default ".env") into the process environment without
// overriding variables already set, then builds the Config. Missing env
// files are ignored; malformed values are errors.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the Config from environment variables.
func FromEnv() (Config, error) {
	cfg := Default()
	var err error

	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return Config{}, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT out of range: %d", cfg.Port)
	}
	cfg.DBPath = envString("DB_PATH", cfg.DBPath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envString("LOG_FORMAT", cfg.LogFormat)
	cfg.PolicyPath = envString("POLICY_PATH", cfg.PolicyPath)
	cfg.JWTSecret = os.Getenv("JWT_SECRET")

	if cfg.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = envInt("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return Config{}, fmt.Errorf("rate limit must be positive (rps %g, burst %d)", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.SeedPresets, err = envBool("SEED_PRESETS", cfg.SeedPresets); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: %w", v, err)
		}
		cfg.ShutdownTimeout = d
	}
	return cfg, nil
}

func envString(key, def string) string {
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
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
