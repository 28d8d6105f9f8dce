package storage

import (
	"database/sql"
	"fmt"

	"gocatalog_crawler/pkg/dbconnect/migration"
)

type schemaMigration struct {
	name  string
	query string
}

func (m *schemaMigration) Name() string { return m.name }

func (m *schemaMigration) UpMigration(db *sql.DB) error {
	if _, err := db.Exec(m.query); err != nil {
		return fmt.Errorf("failed to apply %s: %w", m.name, err)
	}
	return nil
}

// Migrations returns the catalog schema in dependency order.
func Migrations() []migration.MigrationInterface {
	return []migration.MigrationInterface{
		&schemaMigration{name: "catalog.brands", query: `
			CREATE TABLE IF NOT EXISTS brands (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				logo_url TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		&schemaMigration{name: "catalog.families", query: `
			CREATE TABLE IF NOT EXISTS families (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				parent_id BIGINT REFERENCES families(id),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		&schemaMigration{name: "catalog.products", query: `
			CREATE TABLE IF NOT EXISTS products (
				id BIGSERIAL PRIMARY KEY,
				daterium_id BIGINT UNIQUE,
				name TEXT NOT NULL,
				description TEXT,
				brand_id BIGINT REFERENCES brands(id),
				family_id BIGINT REFERENCES families(id),
				ean VARCHAR(14),
				sku TEXT,
				pvp NUMERIC(12, 2),
				thumb_url TEXT,
				image_url TEXT,
				supplier_name TEXT,
				supplier_cif TEXT,
				relevance NUMERIC,
				catalog_id TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS products_ean_idx ON products(ean);
			CREATE INDEX IF NOT EXISTS products_pending_code_idx ON products(id) WHERE ean IS NULL`},
		&schemaMigration{name: "catalog.product_images", query: `
			CREATE TABLE IF NOT EXISTS product_images (
				id BIGSERIAL PRIMARY KEY,
				product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
				url TEXT NOT NULL,
				is_primary BOOLEAN NOT NULL DEFAULT FALSE,
				UNIQUE (product_id, url)
			)`},
		&schemaMigration{name: "catalog.product_codes", query: `
			CREATE TABLE IF NOT EXISTS product_codes (
				id BIGSERIAL PRIMARY KEY,
				product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
				code VARCHAR(14) NOT NULL,
				kind VARCHAR(16) NOT NULL,
				packaging_type VARCHAR(16),
				quantity INT,
				is_primary BOOLEAN NOT NULL DEFAULT FALSE,
				UNIQUE (product_id, code)
			);
			CREATE INDEX IF NOT EXISTS product_codes_code_idx ON product_codes(code)`},
		&schemaMigration{name: "catalog.aecoc_categories", query: `
			CREATE TABLE IF NOT EXISTS aecoc_categories (
				id BIGSERIAL PRIMARY KEY,
				aecoc_id TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				parent_id BIGINT REFERENCES aecoc_categories(id),
				level INT NOT NULL DEFAULT 0
			);
			CREATE TABLE IF NOT EXISTS product_aecoc (
				product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
				aecoc_category_id BIGINT NOT NULL REFERENCES aecoc_categories(id),
				UNIQUE (product_id, aecoc_category_id)
			)`},
		&schemaMigration{name: "catalog.crawl_cursor", query: `
			CREATE TABLE IF NOT EXISTS crawl_cursor (
				strategy TEXT PRIMARY KEY,
				cursor_key TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
	}
}
