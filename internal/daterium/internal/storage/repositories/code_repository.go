package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gocatalog_crawler/internal/daterium/internal/models"
)

type CodeRepository struct {
	db sqlx.ExtContext
}

func NewCodeRepository(db sqlx.ExtContext) *CodeRepository {
	return &CodeRepository{db: db}
}

// Upsert records one validated code of a product. Once primary, a code stays primary.
func (r *CodeRepository) Upsert(ctx context.Context, productID int64, c models.CodeEntry) error {
	query := `
		INSERT INTO product_codes (product_id, code, kind, packaging_type, quantity, is_primary)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, code) DO UPDATE SET
			packaging_type = COALESCE(EXCLUDED.packaging_type, product_codes.packaging_type),
			quantity = COALESCE(EXCLUDED.quantity, product_codes.quantity),
			is_primary = EXCLUDED.is_primary OR product_codes.is_primary`
	var packaging *string
	if c.Packaging != "" {
		packaging = &c.Packaging
	}
	if _, err := r.db.ExecContext(ctx, query, productID, c.Code, c.Kind, packaging, c.Quantity, c.Primary); err != nil {
		return fmt.Errorf("failed to upsert code %s for product %d: %w", c.Code, productID, err)
	}
	return nil
}
