package crawl

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"gocatalog_crawler/internal/daterium/internal/business/extract"
	"gocatalog_crawler/internal/daterium/internal/business/keyspace"
	"gocatalog_crawler/internal/daterium/internal/business/merge"
	"gocatalog_crawler/internal/daterium/internal/models"
	"gocatalog_crawler/internal/daterium/pkg/clients"
	"gocatalog_crawler/metrics"
	"gocatalog_crawler/pkg/logger"
)

const (
	OutcomeMerged      = "merged"
	OutcomeNoData      = "no_data"
	OutcomeAbsent      = "absent"
	OutcomeMalformed   = "malformed"
	OutcomeMergeFailed = "merge_failed"
)

type Fetcher interface {
	Acquire(ctx context.Context) (func(), error)
	Fetch(ctx context.Context, term string) clients.Response
}

type Merger interface {
	MergeBatch(ctx context.Context, entries []*models.CatalogEntry) (merge.Summary, error)
}

type CursorStore interface {
	Get(ctx context.Context, strategy models.Strategy) (string, bool, error)
	Set(ctx context.Context, strategy models.Strategy, term string) error
}

type KeySource interface {
	Keys(ctx context.Context, strategy models.Strategy) (keyspace.Sequence, error)
}

type Options struct {
	ChunkSize int
	Shuffle   bool
}

type Crawler struct {
	fetcher   Fetcher
	merger    Merger
	cursors   CursorStore
	keys      KeySource
	extractor *extract.Extractor
	opts      Options
	log       logger.Logger
}

func NewCrawler(fetcher Fetcher, merger Merger, cursors CursorStore, keys KeySource, extractor *extract.Extractor, opts Options, log logger.Logger) *Crawler {
	if opts.ChunkSize < 1 {
		opts.ChunkSize = 50
	}
	return &Crawler{
		fetcher:   fetcher,
		merger:    merger,
		cursors:   cursors,
		keys:      keys,
		extractor: extractor,
		opts:      opts,
		log:       log.Named("crawl"),
	}
}

// Run sweeps one strategy from its cursor to the end of its key space.
// Cancelling ctx stops dispatch; terms already dispatched finish and checkpoint.
func (c *Crawler) Run(ctx context.Context, strategy models.Strategy) (metrics.Summary, error) {
	runID := uuid.NewString()
	log := c.log.With(logger.String("run_id", runID), logger.String("strategy", strategy.String()))

	seq, err := c.keys.Keys(ctx, strategy)
	if err != nil {
		return metrics.Summary{}, err
	}
	cursor, found, err := c.cursors.Get(ctx, strategy)
	if err != nil {
		return metrics.Summary{}, err
	}
	start, resumed := keyspace.Resume(seq, cursor, found)
	log.Info("Strategy started",
		logger.Int("keys", seq.Len()),
		logger.Int("start", start),
		logger.Bool("resumed", resumed),
		logger.String("cursor", cursor))

	started := time.Now()
	stats := &metrics.CycleStats{}
	mark := newWatermark(seq, start, strategy, c.cursors, log)
	detached := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	interrupted := false
dispatch:
	for chunk := range keyspace.Chunks(seq, start, c.opts.ChunkSize) {
		order := make([]int, len(chunk.Terms))
		for i := range order {
			order[i] = i
		}
		if c.opts.Shuffle && !resumed {
			rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		for _, i := range order {
			if ctx.Err() != nil {
				interrupted = true
				break dispatch
			}
			release, err := c.fetcher.Acquire(ctx)
			if err != nil {
				interrupted = true
				break dispatch
			}
			idx, term := chunk.Start+i, chunk.Terms[i]
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer release()
				c.processTerm(detached, strategy, term, stats, log)
				mark.resolve(detached, idx)
			}()
		}
	}
	wg.Wait()

	summary := stats.Snapshot()
	log.Info("Strategy finished",
		logger.Bool("interrupted", interrupted),
		logger.Int64("terms", summary.Terms),
		logger.Int64("fetched", summary.Fetched),
		logger.Int64("absent", summary.Absent),
		logger.Int64("malformed", summary.Malformed),
		logger.Int64("merge_failed", summary.MergeFailed),
		logger.Int64("products", summary.ProductsMerged),
		logger.Int64("skipped", summary.Skipped),
		logger.Int64("excluded", summary.Excluded),
		logger.Int("cursor_index", mark.position()),
		logger.Duration("elapsed", time.Since(started)))

	if interrupted {
		return summary, ctx.Err()
	}
	return summary, nil
}

// processTerm runs fetch, parse, extract and merge for one term.
func (c *Crawler) processTerm(ctx context.Context, strategy models.Strategy, term string, stats *metrics.CycleStats, log logger.Logger) string {
	stats.Terms.Add(1)
	resp := c.fetcher.Fetch(ctx, term)
	metrics.RecordFetch(string(resp.Outcome), resp.StatusCode, resp.Attempts, resp.Duration)

	fields := []logger.Field{
		logger.String("term", term),
		logger.Int("attempts", resp.Attempts),
		logger.Int("status", resp.StatusCode),
		logger.Duration("took", resp.Duration),
	}
	outcome := c.resolveTerm(ctx, strategy, resp, stats, &fields)
	metrics.RecordTerm(strategy.String(), outcome)

	fields = append(fields, logger.String("outcome", outcome))
	switch outcome {
	case OutcomeMergeFailed:
		log.Error("Term resolved", fields...)
	case OutcomeMalformed:
		log.Warn("Term resolved", fields...)
	default:
		log.Info("Term resolved", fields...)
	}
	return outcome
}

func (c *Crawler) resolveTerm(ctx context.Context, strategy models.Strategy, resp clients.Response, stats *metrics.CycleStats, fields *[]logger.Field) string {
	if resp.Absent() {
		stats.Absent.Add(1)
		*fields = append(*fields, logger.String("fetch", string(resp.Outcome)))
		if resp.Err != nil {
			*fields = append(*fields, logger.Err(resp.Err))
		}
		return OutcomeAbsent
	}

	nodes, err := extract.ParseDocument(resp.Body)
	if err != nil {
		stats.Malformed.Add(1)
		*fields = append(*fields, logger.Err(err))
		return OutcomeMalformed
	}
	stats.Fetched.Add(1)

	batch := c.extractor.ExtractAll(nodes)
	for reason, n := range batch.Skipped {
		metrics.RecordDropped(strategy.String(), string(reason), n)
	}
	skipped := batch.SkippedTotal()
	stats.Skipped.Add(int64(skipped))
	*fields = append(*fields, logger.Int("entries", len(batch.Entries)), logger.Int("skipped", skipped))
	if len(batch.Entries) == 0 {
		return OutcomeNoData
	}

	summary, err := c.merger.MergeBatch(ctx, batch.Entries)
	stats.Excluded.Add(int64(summary.Excluded))
	metrics.RecordDropped(strategy.String(), "missing_id", summary.Excluded)
	if err != nil {
		stats.MergeFailed.Add(1)
		*fields = append(*fields, logger.Err(err))
		return OutcomeMergeFailed
	}
	stats.ProductsMerged.Add(int64(summary.Products))
	metrics.RecordMerged(strategy.String(), summary.Products)
	*fields = append(*fields, logger.Int("products", summary.Products), logger.Int("excluded", summary.Excluded))
	if summary.Products == 0 {
		return OutcomeNoData
	}
	return OutcomeMerged
}

// Loop cycles through strategies until ctx is cancelled, pausing idle between cycles.
// A failing strategy is logged and the cycle moves on.
func (c *Crawler) Loop(ctx context.Context, strategies []models.Strategy, idle time.Duration) error {
	if len(strategies) == 0 {
		return fmt.Errorf("no strategies to loop over")
	}
	for cycle := 1; ; cycle++ {
		var total metrics.Summary
		for _, s := range strategies {
			if ctx.Err() != nil {
				return nil
			}
			summary, err := c.Run(ctx, s)
			total = total.Add(summary)
			if err != nil && !errors.Is(err, context.Canceled) {
				c.log.Error("Strategy failed", logger.String("strategy", s.String()), logger.Err(err))
			}
		}
		c.log.Info("Cycle finished",
			logger.Int("cycle", cycle),
			logger.Int64("terms", total.Terms),
			logger.Int64("products", total.ProductsMerged),
			logger.Duration("idle", idle))

		timer := time.NewTimer(idle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
