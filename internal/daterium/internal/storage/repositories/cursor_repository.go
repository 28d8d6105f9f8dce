package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gocatalog_crawler/internal/daterium/internal/models"
)

type CursorRepository struct {
	db sqlx.ExtContext
}

func NewCursorRepository(db sqlx.ExtContext) *CursorRepository {
	return &CursorRepository{db: db}
}

// Get returns the last processed term of strategy, if any.
func (r *CursorRepository) Get(ctx context.Context, strategy models.Strategy) (string, bool, error) {
	var key string
	err := sqlx.GetContext(ctx, r.db, &key, `SELECT cursor_key FROM crawl_cursor WHERE strategy = $1`, strategy.String())
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cursor for %s: %w", strategy, err)
	}
	return key, true, nil
}

func (r *CursorRepository) Set(ctx context.Context, strategy models.Strategy, term string) error {
	query := `
		INSERT INTO crawl_cursor (strategy, cursor_key, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (strategy) DO UPDATE SET cursor_key = EXCLUDED.cursor_key, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, strategy.String(), term); err != nil {
		return fmt.Errorf("failed to store cursor for %s: %w", strategy, err)
	}
	return nil
}
