package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// NameRepository lists names already stored, feeding the name based strategies.
type NameRepository struct {
	db sqlx.ExtContext
}

func NewNameRepository(db sqlx.ExtContext) *NameRepository {
	return &NameRepository{db: db}
}

func (r *NameRepository) BrandNames(ctx context.Context) ([]string, error) {
	return r.names(ctx, `SELECT DISTINCT name FROM brands WHERE btrim(name) <> '' ORDER BY name`)
}

func (r *NameRepository) FamilyNames(ctx context.Context) ([]string, error) {
	return r.names(ctx, `SELECT DISTINCT name FROM families WHERE btrim(name) <> '' ORDER BY name`)
}

func (r *NameRepository) names(ctx context.Context, query string) ([]string, error) {
	var out []string
	if err := sqlx.SelectContext(ctx, r.db, &out, query); err != nil {
		return nil, fmt.Errorf("failed to list names: %w", err)
	}
	return out, nil
}
