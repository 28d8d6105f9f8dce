package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

// getEnvDuration accepts Go durations ("400ms") or plain seconds ("0.4").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func applyEnv(c *AppConfig) error {
	var err error
	c.Daterium.UserID = getEnv("DATERIUM_USER_ID", c.Daterium.UserID)
	c.Daterium.BaseURL = getEnv("DATERIUM_BASE_URL", c.Daterium.BaseURL)
	c.Database.DSN = ResolveDSN(c.Database.DSN)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Metrics.Addr = getEnv("METRICS_ADDR", c.Metrics.Addr)

	if c.Crawl.Concurrency, err = getEnvInt("SEED_CONCURRENCY", c.Crawl.Concurrency); err != nil {
		return err
	}
	if c.Crawl.RateDelay, err = getEnvDuration("SEED_RATE_DELAY", c.Crawl.RateDelay); err != nil {
		return err
	}
	if c.Crawl.RequestsPerSecond, err = getEnvFloat("SEED_RPS", c.Crawl.RequestsPerSecond); err != nil {
		return err
	}
	if c.Crawl.MaxRetries, err = getEnvInt("SEED_MAX_RETRIES", c.Crawl.MaxRetries); err != nil {
		return err
	}
	if c.Crawl.ChunkSize, err = getEnvInt("SEED_CHUNK_SIZE", c.Crawl.ChunkSize); err != nil {
		return err
	}
	if c.Crawl.Idle, err = getEnvDuration("SEED_IDLE", c.Crawl.Idle); err != nil {
		return err
	}
	return nil
}
