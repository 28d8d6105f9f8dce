package crawl

import (
	"context"
	"time"

	"gocatalog_crawler/internal/daterium/internal/business/extract"
	"gocatalog_crawler/internal/daterium/internal/models"
	"gocatalog_crawler/internal/daterium/pkg/clients"
	"gocatalog_crawler/pkg/logger"
)

type PendingLister interface {
	PendingCodes(ctx context.Context, afterID int64, limit int) ([]models.PendingCode, error)
}

type CodeAttacher interface {
	AttachCode(ctx context.Context, productID int64, entry *models.CatalogEntry) (bool, error)
}

type BackfillOptions struct {
	Limit      int
	DryRun     bool
	MaxBatches int
}

type BackfillSummary struct {
	Batches  int
	Scanned  int
	Found    int
	Attached int
	Missing  int
	Failed   int
}

// Backfiller looks up products stored without a code and attaches one when the
// API now reports it.
type Backfiller struct {
	fetcher   Fetcher
	pending   PendingLister
	attacher  CodeAttacher
	extractor *extract.Extractor
	log       logger.Logger
}

func NewBackfiller(fetcher Fetcher, pending PendingLister, attacher CodeAttacher, extractor *extract.Extractor, log logger.Logger) *Backfiller {
	return &Backfiller{
		fetcher:   fetcher,
		pending:   pending,
		attacher:  attacher,
		extractor: extractor,
		log:       log.Named("backfill"),
	}
}

// Run pages by product id so rows left without a code are never revisited.
func (b *Backfiller) Run(ctx context.Context, opts BackfillOptions) (BackfillSummary, error) {
	if opts.Limit < 1 {
		opts.Limit = 1000
	}
	var summary BackfillSummary
	started := time.Now()
	var afterID int64

	for opts.MaxBatches <= 0 || summary.Batches < opts.MaxBatches {
		if ctx.Err() != nil {
			break
		}
		rows, err := b.pending.PendingCodes(ctx, afterID, opts.Limit)
		if err != nil {
			return summary, err
		}
		if len(rows) == 0 {
			break
		}
		summary.Batches++
		for _, row := range rows {
			if ctx.Err() != nil {
				break
			}
			summary.Scanned++
			b.backfillOne(ctx, row, opts.DryRun, &summary)
			afterID = row.ID
		}
		b.log.Info("Backfill batch done",
			logger.Int("batch", summary.Batches),
			logger.Int("scanned", summary.Scanned),
			logger.Int("attached", summary.Attached),
			logger.Int64("after_id", afterID))
		if len(rows) < opts.Limit {
			break
		}
	}

	b.log.Info("Backfill finished",
		logger.Bool("dry_run", opts.DryRun),
		logger.Int("batches", summary.Batches),
		logger.Int("scanned", summary.Scanned),
		logger.Int("found", summary.Found),
		logger.Int("attached", summary.Attached),
		logger.Int("missing", summary.Missing),
		logger.Int("failed", summary.Failed),
		logger.Duration("elapsed", time.Since(started)))
	return summary, ctx.Err()
}

func (b *Backfiller) backfillOne(ctx context.Context, row models.PendingCode, dryRun bool, summary *BackfillSummary) {
	log := b.log.With(logger.Int64("product_id", row.ID), logger.Int64("daterium_id", row.DateriumID))

	release, err := b.fetcher.Acquire(ctx)
	if err != nil {
		return
	}
	resp := b.fetcher.Fetch(ctx, clients.EntryQuery(row.DateriumID))
	release()

	entry := b.matchingEntry(resp, row.DateriumID)
	if entry == nil || entry.Code == nil {
		summary.Missing++
		log.Debug("No code reported", logger.String("fetch", string(resp.Outcome)))
		return
	}
	summary.Found++
	if dryRun {
		log.Info("Code found (dry run)", logger.String("code", *entry.Code))
		return
	}

	attached, err := b.attacher.AttachCode(ctx, row.ID, entry)
	if err != nil {
		summary.Failed++
		log.Error("Failed to attach code", logger.Err(err))
		return
	}
	if attached {
		summary.Attached++
		log.Info("Code attached", logger.String("code", *entry.Code))
	}
}

// matchingEntry returns the ficha of the response carrying the wanted id.
func (b *Backfiller) matchingEntry(resp clients.Response, id int64) *models.CatalogEntry {
	if resp.Absent() {
		return nil
	}
	nodes, err := extract.ParseDocument(resp.Body)
	if err != nil {
		return nil
	}
	for _, entry := range b.extractor.ExtractAll(nodes).Entries {
		if entry.ExternalID != nil && *entry.ExternalID == id {
			return entry
		}
	}
	return nil
}
