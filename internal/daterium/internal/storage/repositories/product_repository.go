package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gocatalog_crawler/internal/daterium/internal/models"
)

type ProductRepository struct {
	db sqlx.ExtContext
}

func NewProductRepository(db sqlx.ExtContext) *ProductRepository {
	return &ProductRepository{db: db}
}

// Upsert merges a product keyed by its Daterium id. The name always follows the
// latest response; every other column only changes when the new value is non-null.
func (r *ProductRepository) Upsert(ctx context.Context, p models.Product) (int64, error) {
	query := `
		INSERT INTO products (daterium_id, name, description, brand_id, family_id, sku, pvp,
			thumb_url, image_url, supplier_name, supplier_cif, relevance, catalog_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (daterium_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = COALESCE(EXCLUDED.description, products.description),
			brand_id = COALESCE(EXCLUDED.brand_id, products.brand_id),
			family_id = COALESCE(EXCLUDED.family_id, products.family_id),
			sku = COALESCE(EXCLUDED.sku, products.sku),
			pvp = COALESCE(EXCLUDED.pvp, products.pvp),
			thumb_url = COALESCE(EXCLUDED.thumb_url, products.thumb_url),
			image_url = COALESCE(EXCLUDED.image_url, products.image_url),
			supplier_name = COALESCE(EXCLUDED.supplier_name, products.supplier_name),
			supplier_cif = COALESCE(EXCLUDED.supplier_cif, products.supplier_cif),
			relevance = COALESCE(EXCLUDED.relevance, products.relevance),
			catalog_id = COALESCE(EXCLUDED.catalog_id, products.catalog_id),
			updated_at = NOW()
		RETURNING id`
	var id int64
	err := sqlx.GetContext(ctx, r.db, &id, query,
		p.DateriumID, p.Name, p.Description, p.BrandID, p.FamilyID, p.SKU, p.Price,
		p.ThumbURL, p.ImageURL, p.SupplierName, p.SupplierCIF, p.Relevance, p.CatalogID)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert product %d: %w", p.DateriumID, err)
	}
	return id, nil
}

// AttachCode sets the product's preferred identifier code.
func (r *ProductRepository) AttachCode(ctx context.Context, productID int64, code string) error {
	query := `UPDATE products SET ean = $2, updated_at = NOW() WHERE id = $1 AND ean IS DISTINCT FROM $2`
	if _, err := r.db.ExecContext(ctx, query, productID, code); err != nil {
		return fmt.Errorf("failed to attach code to product %d: %w", productID, err)
	}
	return nil
}

// PendingCodes pages through products lacking a code, ordered by id.
func (r *ProductRepository) PendingCodes(ctx context.Context, afterID int64, limit int) ([]models.PendingCode, error) {
	query := `
		SELECT id, daterium_id
		FROM products
		WHERE ean IS NULL AND daterium_id IS NOT NULL AND id > $1
		ORDER BY id
		LIMIT $2`
	var out []models.PendingCode
	if err := sqlx.SelectContext(ctx, r.db, &out, query, afterID, limit); err != nil {
		return nil, fmt.Errorf("failed to list products without code: %w", err)
	}
	return out, nil
}
