package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool

	// GenerateLimit applies to generation endpoints, which are expensive.
	GenerateLimit  int
	GenerateWindow time.Duration
	GenerateBurst  int

	// DefaultLimit applies to everything else except health checks.
	DefaultLimit  int
	DefaultWindow time.Duration

	CleanupInterval time.Duration
}

// DefaultConfig returns the built-in limits.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		GenerateLimit:   10,
		GenerateWindow:  time.Hour,
		GenerateBurst:   2,
		DefaultLimit:    300,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// LoadConfig loads rate limiting configuration from environment variables,
// falling back to the defaults for anything unset.
func LoadConfig() *Config {
	cfg := DefaultConfig()

	cfg.Enabled = getEnvBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	if !cfg.Enabled {
		return &Config{Enabled: false}
	}

	cfg.GenerateLimit = getEnvInt("RATE_LIMIT_GENERATE_LIMIT", cfg.GenerateLimit)
	cfg.GenerateWindow = getEnvDuration("RATE_LIMIT_GENERATE_WINDOW", cfg.GenerateWindow)
	cfg.DefaultLimit = getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)

	return cfg
}

// classify maps a request path to its limit, window, and burst capacity.
// A non-positive limit means unlimited.
func (c *Config) classify(path string) (limit int, window time.Duration, burst int) {
	switch {
	case path == "/health":
		return 0, 0, 0
	case strings.HasPrefix(path, "/generate"):
		return c.GenerateLimit, c.GenerateWindow, c.GenerateBurst
	default:
		return c.DefaultLimit, c.DefaultWindow, c.DefaultLimit
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
