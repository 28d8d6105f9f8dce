package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"gocatalog_crawler/config"
	"gocatalog_crawler/internal/daterium/internal/business/crawl"
	"gocatalog_crawler/internal/daterium/internal/business/extract"
	"gocatalog_crawler/internal/daterium/internal/business/keyspace"
	"gocatalog_crawler/internal/daterium/internal/business/merge"
	"gocatalog_crawler/internal/daterium/internal/models"
	"gocatalog_crawler/internal/daterium/internal/storage"
	"gocatalog_crawler/internal/daterium/internal/storage/repositories"
	"gocatalog_crawler/internal/daterium/pkg/clients"
	"gocatalog_crawler/metrics"
	"gocatalog_crawler/pkg/business/service"
	"gocatalog_crawler/pkg/dbconnect"
	"gocatalog_crawler/pkg/dbconnect/migration"
	"gocatalog_crawler/pkg/dbconnect/postgres"
	"gocatalog_crawler/pkg/logger"
	"gocatalog_crawler/pkg/middleware"
)

// App owns the process wide resources: the database pool and the HTTP client.
type App struct {
	cfg        *config.AppConfig
	log        logger.Logger
	database   dbconnect.Database
	httpClient *http.Client
}

func New(cfg *config.AppConfig, log logger.Logger) *App {
	httpClient := clients.NewHTTPClient(cfg.Daterium.ConnectTimeout, cfg.Daterium.RequestTimeout,
		middleware.Logging(log.Named("http")),
		middleware.UserAgent(cfg.Daterium.UserAgent))
	dbConfig := cfg.Database
	dbConfig.MaxOpenConns = cfg.PoolSize()
	return &App{
		cfg:        cfg,
		log:        log,
		database:   postgres.NewPgConnector(dbConfig, log),
		httpClient: httpClient,
	}
}

type (
	BackfillOptions = crawl.BackfillOptions
	BackfillSummary = crawl.BackfillSummary
)

type CrawlOptions struct {
	Strategies []string
	Loop       bool
}

func (a *App) Close() error {
	a.httpClient.CloseIdleConnections()
	return a.database.Close()
}

// Migrate applies the catalog schema.
func (a *App) Migrate(ctx context.Context) error {
	if err := a.cfg.ValidateDatabase(); err != nil {
		return err
	}
	_, err := a.open(ctx)
	return err
}

// Crawl runs the given strategies once each, or cycles through them in loop mode.
func (a *App) Crawl(ctx context.Context, opts CrawlOptions) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	strategies, err := resolveStrategies(opts.Strategies, a.cfg.Crawl.Strategies, opts.Loop)
	if err != nil {
		return err
	}
	db, err := a.open(ctx)
	if err != nil {
		return err
	}
	a.serveMetrics(ctx)

	crawler := crawl.NewCrawler(
		a.searchClient(a.cfg.Crawl.RateDelay),
		merge.NewEngine(db, a.cfg.Crawl.CacheSize, a.log),
		repositories.NewCursorRepository(db),
		keyspace.NewGenerator(repositories.NewNameRepository(db), a.cfg.Crawl.DigitUpper),
		extract.NewExtractor(service.NewTextService()),
		crawl.Options{ChunkSize: a.cfg.Crawl.ChunkSize, Shuffle: a.cfg.Crawl.Shuffle},
		a.log,
	)

	if opts.Loop {
		return crawler.Loop(ctx, strategies, a.cfg.Crawl.Idle)
	}
	for _, s := range strategies {
		if _, err := crawler.Run(ctx, s); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("strategy %s: %w", s, err)
		}
	}
	return nil
}

// Backfill attaches codes to products stored without one.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) (BackfillSummary, error) {
	if err := a.cfg.Validate(); err != nil {
		return BackfillSummary{}, err
	}
	db, err := a.open(ctx)
	if err != nil {
		return BackfillSummary{}, err
	}
	if opts.Limit <= 0 {
		opts.Limit = a.cfg.Backfill.BatchSize
	}

	backfiller := crawl.NewBackfiller(
		a.searchClient(a.cfg.Backfill.Delay),
		repositories.NewProductRepository(db),
		merge.NewEngine(db, a.cfg.Crawl.CacheSize, a.log),
		extract.NewExtractor(service.NewTextService()),
		a.log,
	)
	summary, err := backfiller.Run(ctx, opts)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return summary, err
}

// open connects and brings the schema up to date.
func (a *App) open(ctx context.Context) (*sqlx.DB, error) {
	db, err := a.database.Connect()
	if err != nil {
		return nil, err
	}
	if err := migration.Apply(ctx, db.DB, a.log, storage.Migrations()...); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return db, nil
}

func (a *App) searchClient(delay time.Duration) *clients.SearchClient {
	c := a.cfg.Crawl
	base := clients.NewBaseClient(a.cfg.Daterium.BaseURL, a.cfg.Daterium.UserAgent, a.httpClient, a.log)
	return clients.NewSearchClient(base, clients.SearchOptions{
		UserID:            a.cfg.Daterium.UserID,
		Concurrency:       c.Concurrency,
		MinDelay:          delay,
		RequestsPerSecond: c.RequestsPerSecond,
		MaxRetries:        c.MaxRetries,
		RetryInterval:     c.RetryInterval,
	})
}

func (a *App) serveMetrics(ctx context.Context) {
	if a.cfg.Metrics.Addr == "" {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, a.cfg.Metrics.Addr, a.log); err != nil {
			a.log.Error("Metrics server stopped", logger.Err(err))
		}
	}()
}

// resolveStrategies picks the flag list, then the configured list, then the
// default rotation in loop mode.
func resolveStrategies(flagged, configured []string, loop bool) ([]models.Strategy, error) {
	raw := flagged
	if len(raw) == 0 {
		raw = configured
	}
	if len(raw) == 0 {
		if loop {
			return append([]models.Strategy(nil), models.DefaultLoop...), nil
		}
		return nil, fmt.Errorf("no strategy given, pick one of %v", models.Strategies())
	}
	return models.ParseStrategies(strings.Join(raw, ","))
}
