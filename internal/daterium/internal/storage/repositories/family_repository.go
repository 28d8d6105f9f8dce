package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type FamilyRepository struct {
	db sqlx.ExtContext
}

func NewFamilyRepository(db sqlx.ExtContext) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// Upsert never replaces a stored parent with null.
func (r *FamilyRepository) Upsert(ctx context.Context, name string, parentID *int64) (int64, error) {
	query := `
		INSERT INTO families (name, parent_id)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET parent_id = COALESCE(EXCLUDED.parent_id, families.parent_id)
		RETURNING id`
	var id int64
	if err := sqlx.GetContext(ctx, r.db, &id, query, name, parentID); err != nil {
		return 0, fmt.Errorf("failed to upsert family %q: %w", name, err)
	}
	return id, nil
}
