package postgres

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gocatalog_crawler/config"
	"gocatalog_crawler/pkg/logger"
)

const (
	defaultMaxRetries = 10
	defaultRetryDelay = 5 * time.Second
	dbMaxIdleConns    = 5
)

type PostgresDatabase struct {
	config.DatabaseConfig
	log  logger.Logger
	db   *sqlx.DB
	mu   sync.Mutex // guards db
	open func(driverName, dsn string) (*sqlx.DB, error)
}

func NewPgConnector(dbConfig config.DatabaseConfig, log logger.Logger) *PostgresDatabase {
	if dbConfig.MaxRetries <= 0 {
		dbConfig.MaxRetries = defaultMaxRetries
	}
	if dbConfig.RetryDelay <= 0 {
		dbConfig.RetryDelay = defaultRetryDelay
	}
	return &PostgresDatabase{
		DatabaseConfig: dbConfig,
		log:            log.Named("postgres"),
		open:           sqlx.Open,
	}
}

// Connect opens the pool and pings it, retrying a bounded number of times.
func (pg *PostgresDatabase) Connect() (*sqlx.DB, error) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db != nil {
		return pg.db, nil
	}

	var err error
	for i := 0; i < pg.MaxRetries; i++ {
		var db *sqlx.DB
		db, err = pg.open("postgres", pg.DSN)
		if err != nil {
			pg.log.Warn("Failed to open Postgres",
				logger.Int("attempt", i+1), logger.Int("max_attempts", pg.MaxRetries), logger.Err(err))
			time.Sleep(pg.RetryDelay)
			continue
		}

		db.SetMaxOpenConns(pg.MaxOpenConns)
		db.SetMaxIdleConns(dbMaxIdleConns)

		if err = db.Ping(); err != nil {
			pg.log.Warn("Failed to ping Postgres",
				logger.Int("attempt", i+1), logger.Int("max_attempts", pg.MaxRetries), logger.Err(err))
			db.Close()
			time.Sleep(pg.RetryDelay)
			continue
		}

		pg.log.Info("Connected to Postgres", logger.String("host", pg.Host()))
		pg.db = db
		return pg.db, nil
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", pg.MaxRetries, err)
}

func (pg *PostgresDatabase) Ping() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return fmt.Errorf("database connection is not established")
	}

	if err := pg.db.Ping(); err != nil {
		pg.db.Close()
		pg.db = nil
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (pg *PostgresDatabase) Close() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return nil
	}
	err := pg.db.Close()
	pg.db = nil
	return err
}
