package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gocatalog_crawler/pkg/logger"
)

var (
	ErrMissingUserID = errors.New("DATERIUM_USER_ID is not set")
	ErrMissingDSN    = errors.New("no database connection string (DATABASE_URL, PGDATABASE_URL, DATABASE_PUBLIC_URL or PGHOST/PGUSER/PGPASSWORD)")
)

const DefaultBaseURL = "https://api.dateriumsystem.com"

type DateriumConfig struct {
	UserID         string        `yaml:"user_id"`
	BaseURL        string        `yaml:"base_url"`
	UserAgent      string        `yaml:"user_agent"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type CrawlConfig struct {
	Concurrency       int           `yaml:"concurrency"`
	RateDelay         time.Duration `yaml:"rate_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	// MaxRetries is the number of extra attempts after a timed out request.
	MaxRetries    int           `yaml:"max_retries"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	ChunkSize     int           `yaml:"chunk_size"`
	DigitUpper    int           `yaml:"digit_upper"`
	CacheSize     int           `yaml:"cache_size"`
	Shuffle       bool          `yaml:"shuffle"`
	Strategies    []string      `yaml:"strategies"`
	Idle          time.Duration `yaml:"idle"`
}

type BackfillConfig struct {
	BatchSize int           `yaml:"batch_size"`
	Delay     time.Duration `yaml:"delay"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type AppConfig struct {
	Daterium DateriumConfig `yaml:"daterium"`
	Database DatabaseConfig `yaml:"database"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	Backfill BackfillConfig `yaml:"backfill"`
	Logging  logger.Config  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *AppConfig {
	return &AppConfig{
		Daterium: DateriumConfig{
			BaseURL:        DefaultBaseURL,
			UserAgent:      "CompraInteligente/1.0",
			ConnectTimeout: 8 * time.Second,
			RequestTimeout: 50 * time.Second,
		},
		Database: DatabaseConfig{
			MaxRetries: 10,
			RetryDelay: 5 * time.Second,
		},
		Crawl: CrawlConfig{
			Concurrency:   5,
			RateDelay:     400 * time.Millisecond,
			MaxRetries:    2,
			RetryInterval: time.Second,
			ChunkSize:     50,
			DigitUpper:    100,
			CacheSize:     4096,
			Idle:          10 * time.Minute,
		},
		Backfill: BackfillConfig{
			BatchSize: 1000,
			Delay:     150 * time.Millisecond,
		},
		Logging: logger.Config{Level: "info"},
	}
}

func LoadConfig(filename string) (*AppConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	config := Defaults()
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return config, nil
}

// Load reads the optional YAML file, then .env files, then the process environment,
// later sources winning.
func Load(filename string, envFiles ...string) (*AppConfig, error) {
	config := Defaults()
	if filename != "" {
		var err error
		if config, err = LoadConfig(filename); err != nil {
			return nil, err
		}
	}
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	if err := applyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// PoolSize is the connection pool bound: the configured value, otherwise enough
// for every crawl permit plus the cursor writer and a spare.
func (c *AppConfig) PoolSize() int {
	if c.Database.MaxOpenConns > 0 {
		return c.Database.MaxOpenConns
	}
	return c.Crawl.Concurrency + 2
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Validate reports the fatal configuration errors of a crawl.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Daterium.UserID == "" {
		errs = append(errs, ErrMissingUserID)
	}
	if err := c.ValidateDatabase(); err != nil {
		errs = append(errs, err)
	}
	if c.Crawl.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("crawl concurrency must be positive, got %d", c.Crawl.Concurrency))
	}
	if c.Crawl.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("crawl chunk size must be positive, got %d", c.Crawl.ChunkSize))
	}
	return errors.Join(errs...)
}

func (c *AppConfig) ValidateDatabase() error {
	if c.Database.DSN == "" {
		return ErrMissingDSN
	}
	return nil
}
