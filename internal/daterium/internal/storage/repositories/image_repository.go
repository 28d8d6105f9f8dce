package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type ImageRepository struct {
	db sqlx.ExtContext
}

func NewImageRepository(db sqlx.ExtContext) *ImageRepository {
	return &ImageRepository{db: db}
}

// Insert adds the image unless the product already has that URL.
func (r *ImageRepository) Insert(ctx context.Context, productID int64, url string, primary bool) error {
	query := `
		INSERT INTO product_images (product_id, url, is_primary)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, url) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, productID, url, primary); err != nil {
		return fmt.Errorf("failed to insert image for product %d: %w", productID, err)
	}
	return nil
}
