//go:build integration

package catalog_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"reading_roundup/internal/domain"
	"reading_roundup/internal/storage/catalog"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations/postgres")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_reading_list.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := catalog.Open(s.ctx, catalog.Config{Driver: catalog.DriverPostgres, DSN: connStr})
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM roundup_contents")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM reading_list")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) TestEntryStore_BulkInsert_FirstWriterWins() {
	store := catalog.NewEntryStore(s.db)

	err := store.BulkInsert(s.ctx, []domain.ReadingListEntry{
		entry("https://x.example/", "2024-01-01", "first", domain.ReadDone),
		entry("https://x.example/", "2024-02-01", "second", domain.ReadUnknown),
		entry("https://y.example/", "2024-02-01", "other", domain.ReadToBeRead),
	})
	s.Require().NoError(err)

	n, err := store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	var body string
	err = s.db.GetContext(s.ctx, &body, "SELECT body_text FROM reading_list WHERE url = $1", "https://x.example/")
	s.NoError(err)
	s.Equal("first", body)
}

func (s *PostgresIntegrationSuite) TestEntryStore_UpdateAndGet() {
	store := catalog.NewEntryStore(s.db)
	s.Require().NoError(store.BulkInsert(s.ctx, []domain.ReadingListEntry{
		entry("https://a.example/", "2024-01-01", "a", domain.ReadUnknown),
	}))
	id, err := store.IDByURL(s.ctx, "https://a.example/")
	s.Require().NoError(err)

	s.Require().NoError(store.Update(s.ctx, id, "edited", domain.ReadToBeRead))

	row, err := store.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("edited", row.Entry.BodyText)
	s.Equal(domain.ReadToBeRead, row.Entry.Read)
	s.Equal(0, row.Roundups)

	_, err = store.Get(s.ctx, id+1000)
	s.ErrorIs(err, catalog.ErrNotFound)
}

func (s *PostgresIntegrationSuite) TestRoundupStore_ReplaceAndCandidates() {
	entries := catalog.NewEntryStore(s.db)
	roundups := catalog.NewRoundupStore(s.db)
	tm := catalog.NewTransactionManager(s.db)

	s.Require().NoError(entries.BulkInsert(s.ctx, []domain.ReadingListEntry{
		entry("https://a.example/", "2024-01-01", "a", domain.ReadUnknown),
		entry("https://b.example/", "2024-01-02", "b", domain.ReadUnknown),
	}))
	a, err := entries.IDByURL(s.ctx, "https://a.example/")
	s.Require().NoError(err)
	b, err := entries.IDByURL(s.ctx, "https://b.example/")
	s.Require().NoError(err)

	date := day("2024-06-01")
	err = tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		return roundups.Replace(ctx, date, []int64{a, b, b})
	})
	s.Require().NoError(err)
	err = tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		return roundups.Replace(ctx, date, []int64{b})
	})
	s.Require().NoError(err)

	rows, err := roundups.Candidates(s.ctx, date)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal("b", rows[0].Entry.BodyText)
	s.True(rows[0].Included)
	s.Equal(1, rows[0].Roundups)
	s.False(rows[1].Included)

	dates, err := roundups.Dates(s.ctx)
	s.Require().NoError(err)
	s.Equal([]time.Time{date}, dates)

	bodies, err := roundups.Bodies(s.ctx, date)
	s.Require().NoError(err)
	s.Equal([]string{"b"}, bodies)
}

func (s *PostgresIntegrationSuite) TestTransaction_Rollback() {
	tm := catalog.NewTransactionManager(s.db)
	store := catalog.NewEntryStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if err := store.BulkInsert(ctx, []domain.ReadingListEntry{
			entry("https://rolled.example/", "2024-01-01", "rolled", domain.ReadUnknown),
		}); err != nil {
			return err
		}
		return context.Canceled
	})
	s.Error(err)

	n, err := store.Count(s.ctx)
	s.NoError(err)
	s.Zero(n)
}
