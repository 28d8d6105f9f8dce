package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type BrandRepository struct {
	db sqlx.ExtContext
}

func NewBrandRepository(db sqlx.ExtContext) *BrandRepository {
	return &BrandRepository{db: db}
}

// Upsert keeps an existing logo when the new one is null.
func (r *BrandRepository) Upsert(ctx context.Context, name string, logoURL *string) (int64, error) {
	query := `
		INSERT INTO brands (name, logo_url)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET logo_url = COALESCE(EXCLUDED.logo_url, brands.logo_url)
		RETURNING id`
	var id int64
	if err := sqlx.GetContext(ctx, r.db, &id, query, name, logoURL); err != nil {
		return 0, fmt.Errorf("failed to upsert brand %q: %w", name, err)
	}
	return id, nil
}
