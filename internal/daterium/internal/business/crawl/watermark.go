package crawl

import (
	"context"
	"sync"

	"gocatalog_crawler/internal/daterium/internal/business/keyspace"
	"gocatalog_crawler/internal/daterium/internal/models"
	"gocatalog_crawler/metrics"
	"gocatalog_crawler/pkg/logger"
)

// watermark checkpoints the highest index below which every term has resolved.
// Terms finish out of order; the cursor never moves past an unfinished one.
type watermark struct {
	mu       sync.Mutex
	seq      keyspace.Sequence
	next     int
	done     map[int]struct{}
	strategy models.Strategy
	cursors  CursorStore
	log      logger.Logger
	writes   int
}

func newWatermark(seq keyspace.Sequence, start int, strategy models.Strategy, cursors CursorStore, log logger.Logger) *watermark {
	return &watermark{
		seq:      seq,
		next:     start,
		done:     make(map[int]struct{}),
		strategy: strategy,
		cursors:  cursors,
		log:      log,
	}
}

// resolve marks idx finished and persists the cursor if the watermark moved.
func (w *watermark) resolve(ctx context.Context, idx int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.done[idx] = struct{}{}
	moved := false
	for {
		if _, ok := w.done[w.next]; !ok {
			break
		}
		delete(w.done, w.next)
		w.next++
		moved = true
	}
	if !moved {
		return
	}

	term := w.seq.At(w.next - 1)
	err := w.cursors.Set(ctx, w.strategy, term)
	metrics.RecordCursorWrite(w.strategy.String(), err)
	if err != nil {
		w.log.Error("Failed to store cursor", logger.String("term", term), logger.Err(err))
		return
	}
	w.writes++
}

func (w *watermark) position() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.next
}
