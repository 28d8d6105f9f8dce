package merge

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"gocatalog_crawler/internal/daterium/internal/models"
	"gocatalog_crawler/internal/daterium/internal/storage/repositories"
	"gocatalog_crawler/pkg/cache"
	"gocatalog_crawler/pkg/logger"
)

type Beginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type familyKey struct {
	name   string
	parent int64
}

// Summary counts what one merge call wrote.
type Summary struct {
	Products   int
	Images     int
	Codes      int
	Categories int
	Excluded   int
	ProductIDs []int64
}

// Engine upserts catalog entries, one transaction per call.
type Engine struct {
	db       Beginner
	brands   *cache.Bounded[string, int64]
	families *cache.Bounded[familyKey, int64]
	log      logger.Logger
}

func NewEngine(db Beginner, cacheSize int, log logger.Logger) *Engine {
	return &Engine{
		db:       db,
		brands:   cache.NewBounded[string, int64](cacheSize),
		families: cache.NewBounded[familyKey, int64](cacheSize),
		log:      log.Named("merge"),
	}
}

// pending holds lookups resolved inside an open transaction.
type pending struct {
	brands   map[string]int64
	families map[familyKey]int64
}

func newPending() *pending {
	return &pending{brands: map[string]int64{}, families: map[familyKey]int64{}}
}

// MergeBatch writes all entries of one term atomically. Entries without an
// external id are excluded and counted.
func (e *Engine) MergeBatch(ctx context.Context, entries []*models.CatalogEntry) (Summary, error) {
	var summary Summary
	eligible := make([]*models.CatalogEntry, 0, len(entries))
	for _, entry := range entries {
		if entry == nil || entry.ExternalID == nil {
			summary.Excluded++
			continue
		}
		eligible = append(eligible, entry)
	}
	if len(eligible) == 0 {
		return summary, nil
	}

	err := e.inTx(ctx, func(store *repositories.Store, p *pending) error {
		for _, entry := range eligible {
			if err := e.mergeEntry(ctx, store, p, entry, &summary); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Summary{Excluded: summary.Excluded}, err
	}
	return summary, nil
}

// Merge writes a single entry in its own transaction and returns the product id.
func (e *Engine) Merge(ctx context.Context, entry *models.CatalogEntry) (int64, error) {
	summary, err := e.MergeBatch(ctx, []*models.CatalogEntry{entry})
	if err != nil {
		return 0, err
	}
	if len(summary.ProductIDs) == 0 {
		return 0, fmt.Errorf("entry has no external id")
	}
	return summary.ProductIDs[0], nil
}

// AttachCode stores the codes of entry on an existing product. It reports
// false when the entry carries no valid code.
func (e *Engine) AttachCode(ctx context.Context, productID int64, entry *models.CatalogEntry) (bool, error) {
	if entry == nil || entry.Code == nil {
		return false, nil
	}
	err := e.inTx(ctx, func(store *repositories.Store, _ *pending) error {
		return attachCodes(ctx, store, productID, entry)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) inTx(ctx context.Context, fn func(*repositories.Store, *pending) error) error {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	p := newPending()
	if err := fn(repositories.NewStore(tx), p); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			e.log.Warn("Rollback failed", logger.Err(rbErr))
		}
		e.log.Warn("Merge rolled back",
			logger.String("condition", repositories.Describe(err)),
			logger.Err(err))
		return err
	}
	if err := tx.Commit(); err != nil {
		// the outcome is unknown, cached ids may point at rolled back rows
		e.brands.Purge()
		e.families.Purge()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	for name, id := range p.brands {
		e.brands.Put(name, id)
	}
	for key, id := range p.families {
		e.families.Put(key, id)
	}
	return nil
}

func (e *Engine) mergeEntry(ctx context.Context, store *repositories.Store, p *pending, entry *models.CatalogEntry, summary *Summary) error {
	var brandID *int64
	if entry.Brand != nil {
		id, err := e.brandID(ctx, store, p, *entry.Brand, entry.BrandLogo)
		if err != nil {
			return err
		}
		brandID = &id
	}

	familyID, err := e.familyChain(ctx, store, p, entry.Family, entry.Subfamily)
	if err != nil {
		return err
	}

	productID, err := store.Products.Upsert(ctx, models.Product{
		DateriumID:   *entry.ExternalID,
		Name:         entry.Name,
		Description:  entry.Description,
		BrandID:      brandID,
		FamilyID:     familyID,
		SKU:          entry.SKU,
		Price:        entry.Price,
		ThumbURL:     entry.Thumb,
		ImageURL:     entry.BestImage,
		SupplierName: entry.SupplierName,
		SupplierCIF:  entry.SupplierCIF,
		Relevance:    entry.Relevance,
		CatalogID:    entry.CatalogID,
	})
	if err != nil {
		return err
	}
	summary.Products++
	summary.ProductIDs = append(summary.ProductIDs, productID)

	for _, img := range entry.Images {
		if err := store.Images.Insert(ctx, productID, img.URL, img.Primary); err != nil {
			return err
		}
		summary.Images++
	}

	if err := attachCodes(ctx, store, productID, entry); err != nil {
		return err
	}
	summary.Codes += len(entry.Codes)

	linked, err := linkCategories(ctx, store, productID, entry.Categories)
	if err != nil {
		return err
	}
	summary.Categories += linked
	return nil
}

func (e *Engine) brandID(ctx context.Context, store *repositories.Store, p *pending, name string, logo *string) (int64, error) {
	if id, ok := p.brands[name]; ok {
		return id, nil
	}
	// a new logo still has to reach the row
	if id, ok := e.brands.Get(name); ok && logo == nil {
		return id, nil
	}
	id, err := store.Brands.Upsert(ctx, name, logo)
	if err != nil {
		return 0, err
	}
	p.brands[name] = id
	return id, nil
}

func (e *Engine) familyID(ctx context.Context, store *repositories.Store, p *pending, name string, parent *int64) (int64, error) {
	key := familyKey{name: name}
	if parent != nil {
		key.parent = *parent
	}
	if id, ok := p.families[key]; ok {
		return id, nil
	}
	if id, ok := e.families.Get(key); ok {
		return id, nil
	}
	id, err := store.Families.Upsert(ctx, name, parent)
	if err != nil {
		return 0, err
	}
	p.families[key] = id
	return id, nil
}

// familyChain resolves family then subfamily and returns the most specific id.
func (e *Engine) familyChain(ctx context.Context, store *repositories.Store, p *pending, family, subfamily *string) (*int64, error) {
	var topID *int64
	if family != nil {
		id, err := e.familyID(ctx, store, p, *family, nil)
		if err != nil {
			return nil, err
		}
		topID = &id
	}
	if subfamily == nil {
		return topID, nil
	}
	if family != nil && strings.EqualFold(*family, *subfamily) {
		return topID, nil
	}
	id, err := e.familyID(ctx, store, p, *subfamily, topID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func attachCodes(ctx context.Context, store *repositories.Store, productID int64, entry *models.CatalogEntry) error {
	if entry.Code != nil {
		if err := store.Products.AttachCode(ctx, productID, *entry.Code); err != nil {
			return err
		}
	}
	for _, c := range entry.Codes {
		if err := store.Codes.Upsert(ctx, productID, c); err != nil {
			return err
		}
	}
	return nil
}

// linkCategories stores the AECOC path top down and links the product to its leaf.
func linkCategories(ctx context.Context, store *repositories.Store, productID int64, path []models.Category) (int, error) {
	if len(path) == 0 {
		return 0, nil
	}
	var parent *int64
	for _, c := range path {
		id, err := store.Categories.Upsert(ctx, c.AecocID, c.Name, parent)
		if err != nil {
			return 0, err
		}
		parent = &id
	}
	if err := store.Categories.Link(ctx, productID, *parent); err != nil {
		return 0, err
	}
	return len(path), nil
}
