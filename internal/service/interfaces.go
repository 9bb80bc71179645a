package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"reading_roundup/internal/domain"
)

type EntryStore interface {
	BulkInsert(ctx context.Context, entries []domain.ReadingListEntry) error
	Count(ctx context.Context) (int64, error)
	IDByURL(ctx context.Context, url string) (int64, error)
	Update(ctx context.Context, id int64, bodyText string, read domain.ReadState) error
	Get(ctx context.Context, id int64) (*domain.CatalogRow, error)
	List(ctx context.Context) ([]domain.CatalogRow, error)
}

type RoundupStore interface {
	Replace(ctx context.Context, date time.Time, ids []int64) error
	Dates(ctx context.Context) ([]time.Time, error)
	DatesByEntry(ctx context.Context, id int64) ([]time.Time, error)
	Candidates(ctx context.Context, date time.Time) ([]domain.RoundupRow, error)
	Bodies(ctx context.Context, date time.Time) ([]string, error)
}

type Source interface {
	ID() string
	Name() string
	Scan(ctx context.Context) ([]domain.ReadingListEntry, []error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	PublishRoundup(ctx context.Context, doc *domain.RoundupDocument) error
	Close() error
}
