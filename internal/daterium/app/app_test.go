package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog_crawler/config"
	"gocatalog_crawler/internal/daterium/internal/business/crawl"
	"gocatalog_crawler/internal/daterium/internal/models"
	"gocatalog_crawler/internal/daterium/internal/storage"
	"gocatalog_crawler/pkg/dbconnect/postgres"
	"gocatalog_crawler/pkg/logger"
)

type mockDatabase struct {
	db     *sqlx.DB
	closed bool
}

func (m *mockDatabase) Connect() (*sqlx.DB, error) { return m.db, nil }
func (m *mockDatabase) Ping() error                { return nil }
func (m *mockDatabase) Close() error {
	m.closed = true
	return nil
}

func newTestApp(t *testing.T, cfg *config.AppConfig) (*App, sqlmock.Sqlmock, *mockDatabase) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	database := &mockDatabase{db: sqlx.NewDb(raw, "postgres")}
	return &App{cfg: cfg, log: logger.NewNop(), database: database, httpClient: http.DefaultClient}, mock, database
}

func expectSchema(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations.migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	for _, m := range storage.Migrations() {
		mock.ExpectQuery("SELECT EXISTS").WithArgs(m.Name()).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	}
}

func validConfig() *config.AppConfig {
	cfg := config.Defaults()
	cfg.Daterium.UserID = "u-1"
	cfg.Database.DSN = "postgres://localhost/catalog"
	return cfg
}

func TestResolveStrategies(t *testing.T) {
	got, err := resolveStrategies([]string{"tool-term", "brand-name"}, []string{"digit-range"}, false)
	require.NoError(t, err)
	assert.Equal(t, []models.Strategy{models.ToolTerm, models.BrandName}, got)

	got, err = resolveStrategies(nil, []string{"digit-range"}, false)
	require.NoError(t, err)
	assert.Equal(t, []models.Strategy{models.DigitRange}, got)

	got, err = resolveStrategies(nil, nil, true)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLoop, got)

	_, err = resolveStrategies(nil, nil, false)
	assert.Error(t, err)

	_, err = resolveStrategies([]string{"bogus"}, nil, false)
	assert.Error(t, err)
}

func TestCrawl_FailsFastWithoutCredentials(t *testing.T) {
	cfg := config.Defaults()
	a, mock, _ := newTestApp(t, cfg)

	err := a.Crawl(context.Background(), CrawlOptions{Strategies: []string{"tool-term"}})
	assert.ErrorIs(t, err, config.ErrMissingUserID)
	assert.ErrorIs(t, err, config.ErrMissingDSN)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_AppliesSchema(t *testing.T) {
	a, mock, database := newTestApp(t, validConfig())
	expectSchema(mock)

	require.NoError(t, a.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())

	require.NoError(t, a.Close())
	assert.True(t, database.closed)
}

func TestBackfill_NothingPending(t *testing.T) {
	a, mock, _ := newTestApp(t, validConfig())
	expectSchema(mock)
	mock.ExpectQuery(`SELECT id, daterium_id`).WithArgs(int64(0), 1000).
		WillReturnRows(sqlmock.NewRows([]string{"id", "daterium_id"}))

	summary, err := a.Backfill(context.Background(), crawl.BackfillOptions{})
	require.NoError(t, err)
	assert.Equal(t, crawl.BackfillSummary{}, summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_PoolSizedAfterOverrides(t *testing.T) {
	cfg := validConfig()
	cfg.Crawl.Concurrency = 20

	a := New(cfg, logger.NewNop())
	pg, ok := a.database.(*postgres.PostgresDatabase)
	require.True(t, ok)
	assert.Equal(t, 22, pg.MaxOpenConns)
}
