package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type DatabaseConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
}

// Host returns the DSN host without credentials, for logging.
func (c DatabaseConfig) Host() string {
	if u, err := url.Parse(c.DSN); err == nil && u.Host != "" {
		return u.Host
	}
	for _, part := range strings.Fields(c.DSN) {
		if v, ok := strings.CutPrefix(part, "host="); ok {
			return v
		}
	}
	return ""
}

// PostgresConfig represents the discrete PG* variables some platforms expose.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func (pc *PostgresConfig) GetConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

func GetPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:     getEnv("PGHOST", ""),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", ""),
		Password: getEnv("PGPASSWORD", ""),
		DBName:   getEnv("PGDATABASE", "postgres"),
	}
}

// ResolveDSN picks the connection string from the environment: DATABASE_URL, then
// PGDATABASE_URL, then the configured value. A private ".internal" host is swapped
// for DATABASE_PUBLIC_URL when that is set. Discrete PG* variables are the last resort.
func ResolveDSN(configured string) string {
	dsn := getEnv("DATABASE_URL", getEnv("PGDATABASE_URL", configured))
	public := getEnv("DATABASE_PUBLIC_URL", "")
	switch {
	case dsn == "" && public != "":
		return public
	case dsn != "" && public != "" && isInternalHost(dsn):
		return public
	case dsn != "":
		return dsn
	}
	if pc := GetPostgresConfig(); pc.Host != "" && pc.User != "" && pc.Password != "" {
		return pc.GetConnectionString()
	}
	return ""
}

func isInternalHost(dsn string) bool {
	host := DatabaseConfig{DSN: dsn}.Host()
	if h, _, ok := strings.Cut(host, ":"); ok && !strings.HasPrefix(host, "[") {
		host = h
	}
	return strings.HasSuffix(host, ".internal")
}
