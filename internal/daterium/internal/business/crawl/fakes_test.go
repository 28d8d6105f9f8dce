package crawl

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"gocatalog_crawler/internal/daterium/internal/business/extract"
	"gocatalog_crawler/internal/daterium/internal/business/keyspace"
	"gocatalog_crawler/internal/daterium/internal/business/merge"
	"gocatalog_crawler/internal/daterium/internal/models"
	"gocatalog_crawler/internal/daterium/pkg/clients"
	"gocatalog_crawler/pkg/business/service"
)

const brocaDoc = `<?xml version="1.0" encoding="UTF-8"?>
<resultados>
  <ficha idcatalogo="123" relevancia="9,5">
    <id>7771</id>
    <nombre>Broca HSS 6mm</nombre>
    <descripcioncorta>Broca para metal</descripcioncorta>
    <marca>Tivoly</marca>
    <familia>Brocas</familia>
    <subfamilia>Brocas metal</subfamilia>
    <img500x500>http://img.example/500.jpg</img500x500>
    <referencias>
      <referencia>
        <ref>TIV-6</ref>
        <ean>8412345678905</ean>
        <pvp>3,45</pvp>
      </referencia>
    </referencias>
  </ficha>
</resultados>`

const namelessDoc = `<resultados><ficha><id>8</id><nombre> </nombre></ficha></resultados>`

func newTestExtractor() *extract.Extractor {
	return extract.NewExtractor(service.NewTextService())
}

func fetched(body string) clients.Response {
	return clients.Response{Body: []byte(body), Outcome: clients.OutcomeFetched, Attempts: 1, StatusCode: 200}
}

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]clients.Response
	calls     []string
	permits   chan struct{}
	delay     time.Duration
	inFlight  atomic.Int32
	peak      atomic.Int32
	onFetch   func(term string)
}

func newFakeFetcher(permits int, responses map[string]clients.Response) *fakeFetcher {
	return &fakeFetcher{responses: responses, permits: make(chan struct{}, permits)}
}

func (f *fakeFetcher) Acquire(ctx context.Context) (func(), error) {
	select {
	case f.permits <- struct{}{}:
		return func() { <-f.permits }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, term string) clients.Response {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls = append(f.calls, term)
	resp, ok := f.responses[term]
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(term)
	}
	if !ok {
		return clients.Response{Outcome: clients.OutcomeRejected, Attempts: 1, StatusCode: 404}
	}
	return resp
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeMerger struct {
	mu      sync.Mutex
	entries []*models.CatalogEntry
	err     error
}

func (m *fakeMerger) MergeBatch(_ context.Context, entries []*models.CatalogEntry) (merge.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return merge.Summary{}, m.err
	}
	m.entries = append(m.entries, entries...)
	return merge.Summary{Products: len(entries)}, nil
}

type fakeCursors struct {
	mu      sync.Mutex
	values  map[models.Strategy]string
	history []string
	err     error
}

func newFakeCursors() *fakeCursors {
	return &fakeCursors{values: map[models.Strategy]string{}}
}

func (c *fakeCursors) Get(_ context.Context, s models.Strategy) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[s]
	return v, ok, nil
}

func (c *fakeCursors) Set(_ context.Context, s models.Strategy, term string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.values[s] = term
	c.history = append(c.history, term)
	return nil
}

type fakeKeys map[models.Strategy][]string

func (k fakeKeys) Keys(_ context.Context, s models.Strategy) (keyspace.Sequence, error) {
	terms, ok := k[s]
	if !ok {
		return nil, errors.New("no keys for " + s.String())
	}
	return keyspace.NewSlice(terms), nil
}
