package models

// Product is the row shape written to the products table.
type Product struct {
	ID           int64    `db:"id"`
	DateriumID   int64    `db:"daterium_id"`
	Name         string   `db:"name"`
	Description  *string  `db:"description"`
	BrandID      *int64   `db:"brand_id"`
	FamilyID     *int64   `db:"family_id"`
	EAN          *string  `db:"ean"`
	SKU          *string  `db:"sku"`
	Price        *float64 `db:"pvp"`
	ThumbURL     *string  `db:"thumb_url"`
	ImageURL     *string  `db:"image_url"`
	SupplierName *string  `db:"supplier_name"`
	SupplierCIF  *string  `db:"supplier_cif"`
	Relevance    *float64 `db:"relevance"`
	CatalogID    *string  `db:"catalog_id"`
}

// PendingCode is a product still lacking an identifier code.
type PendingCode struct {
	ID         int64 `db:"id"`
	DateriumID int64 `db:"daterium_id"`
}
