package repositories

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store bundles the catalog repositories over one executor, usually a transaction.
type Store struct {
	Brands     *BrandRepository
	Families   *FamilyRepository
	Products   *ProductRepository
	Images     *ImageRepository
	Codes      *CodeRepository
	Categories *CategoryRepository
}

func NewStore(db sqlx.ExtContext) *Store {
	return &Store{
		Brands:     NewBrandRepository(db),
		Families:   NewFamilyRepository(db),
		Products:   NewProductRepository(db),
		Images:     NewImageRepository(db),
		Codes:      NewCodeRepository(db),
		Categories: NewCategoryRepository(db),
	}
}

// Describe renders a Postgres error with its condition and constraint names.
func Describe(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Constraint != "" {
			return fmt.Sprintf("%s (%s on %s)", pqErr.Code.Name(), pqErr.Constraint, pqErr.Table)
		}
		return pqErr.Code.Name()
	}
	return "unknown"
}
