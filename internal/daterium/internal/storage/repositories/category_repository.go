package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type CategoryRepository struct {
	db sqlx.ExtContext
}

func NewCategoryRepository(db sqlx.ExtContext) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Upsert stores one AECOC node. Numeric ids encode depth in pairs of digits.
func (r *CategoryRepository) Upsert(ctx context.Context, aecocID, name string, parentID *int64) (int64, error) {
	query := `
		INSERT INTO aecoc_categories (aecoc_id, name, parent_id, level)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (aecoc_id) DO UPDATE SET
			name = EXCLUDED.name,
			parent_id = COALESCE(EXCLUDED.parent_id, aecoc_categories.parent_id),
			level = EXCLUDED.level
		RETURNING id`
	var id int64
	if err := sqlx.GetContext(ctx, r.db, &id, query, aecocID, name, parentID, aecocLevel(aecocID)); err != nil {
		return 0, fmt.Errorf("failed to upsert aecoc category %s: %w", aecocID, err)
	}
	return id, nil
}

func (r *CategoryRepository) Link(ctx context.Context, productID, categoryID int64) error {
	query := `
		INSERT INTO product_aecoc (product_id, aecoc_category_id)
		VALUES ($1, $2)
		ON CONFLICT (product_id, aecoc_category_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, productID, categoryID); err != nil {
		return fmt.Errorf("failed to link product %d to category %d: %w", productID, categoryID, err)
	}
	return nil
}

func aecocLevel(id string) int {
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return 0
		}
	}
	return len(id) / 2
}
