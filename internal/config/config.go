package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is loaded once at run start and immutable afterwards. Components
// receive it (or the fields they need) at construction; replacing the
// configuration means starting a new run.
type Config struct {
	BearerToken        string
	FullArchiveEnabled bool
	RequestsPerMinute  int
	MaxRetries         int
	BaseDelay          time.Duration
	MaxDelay           time.Duration
	RecentWindowDays   int
	RadiusDays         int
	LogLevel           string
	LogFormat          string
}

func Load() (*Config, error) {
	// Best effort: a missing .env file is fine, the environment still applies.
	_ = godotenv.Load()

	baseDelay, err := getFloatEnv("RATE_LIMIT_BASE_DELAY_SECONDS", 1.5)
	if err != nil {
		return nil, err
	}
	maxDelay, err := getFloatEnv("RATE_LIMIT_MAX_DELAY_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BearerToken:        os.Getenv("TWITTER_BEARER_TOKEN"),
		FullArchiveEnabled: getEnv("USE_SEARCH_ALL", "true") == "true",
		BaseDelay:          time.Duration(baseDelay * float64(time.Second)),
		MaxDelay:           time.Duration(maxDelay * float64(time.Second)),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	if cfg.RequestsPerMinute, err = getIntEnv("REQUESTS_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = getIntEnv("RATE_LIMIT_MAX_RETRIES", 5); err != nil {
		return nil, err
	}
	if cfg.RecentWindowDays, err = getIntEnv("RECENT_WINDOW_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.RadiusDays, err = getIntEnv("WINDOW_RADIUS_DAYS", 180); err != nil {
		return nil, err
	}

	if cfg.BearerToken == "" {
		return nil, fmt.Errorf("TWITTER_BEARER_TOKEN is required")
	}
	if cfg.RequestsPerMinute < 1 {
		return nil, fmt.Errorf("REQUESTS_PER_MINUTE must be at least 1")
	}
	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX_RETRIES must be at least 1")
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		return nil, fmt.Errorf("RATE_LIMIT_MAX_DELAY_SECONDS must not be below RATE_LIMIT_BASE_DELAY_SECONDS")
	}
	if cfg.RecentWindowDays < 1 {
		return nil, fmt.Errorf("RECENT_WINDOW_DAYS must be at least 1")
	}
	if cfg.RadiusDays < 1 {
		return nil, fmt.Errorf("WINDOW_RADIUS_DAYS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
