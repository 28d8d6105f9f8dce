package migration

import (
	"context"
	"database/sql"
	"fmt"

	"gocatalog_crawler/pkg/logger"
)

type MigrationInterface interface {
	Name() string
	UpMigration(*sql.DB) error
}

// Apply makes sure the migrations registry exists, then runs every migration
// not yet recorded there, in order.
func Apply(ctx context.Context, db *sql.DB, log logger.Logger, migrations ...MigrationInterface) error {
	if err := bootstrap(ctx, db); err != nil {
		return err
	}
	applied := 0
	for _, m := range migrations {
		var exists bool
		err := db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = $1)", m.Name()).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			log.Debug("Migration already completed, skipping", logger.String("migration", m.Name()))
			continue
		}
		if err := m.UpMigration(db); err != nil {
			return fmt.Errorf("failed to execute migration '%s': %w", m.Name(), err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO migrations.migrations (name, time) VALUES ($1, current_timestamp)", m.Name()); err != nil {
			return fmt.Errorf("failed to mark migration '%s' as complete: %w", m.Name(), err)
		}
		log.Info("Migration completed", logger.String("migration", m.Name()))
		applied++
	}
	log.Info("Migrations applied", logger.Int("applied", applied), logger.Int("total", len(migrations)))
	return nil
}

func bootstrap(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS migrations`); err != nil {
		return fmt.Errorf("failed to create migrations schema: %w", err)
	}
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations.migrations (
			id SERIAL PRIMARY KEY,
			time TIMESTAMP NOT NULL,
			name VARCHAR(255) UNIQUE NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}
