package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"reading_roundup/internal/domain"
	"reading_roundup/internal/export"
	"reading_roundup/internal/source/journal"
)

var (
	// ErrStore wraps every failure of the underlying catalog storage.
	ErrStore = errors.New("catalog store error")

	ErrPublishingDisabled = errors.New("roundup publishing is disabled")
)

func storeError(err error) error {
	if err == nil || errors.Is(err, ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}

// CatalogService owns the reading list and the roundups. Every operation
// holds the service lock for its whole duration, so at most one touches
// the store at a time.
type CatalogService struct {
	mu        sync.Mutex
	entries   EntryStore
	roundups  RoundupStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	today     func() time.Time
}

// NewCatalogService wires the stores. publisher may be nil, in which case
// PublishRoundup fails with ErrPublishingDisabled.
func NewCatalogService(
	entries EntryStore,
	roundups RoundupStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		entries:   entries,
		roundups:  roundups,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("component", "catalog"),
		today:     domain.Today,
	}
}

// BulkIngest inserts the entries, skipping those whose URL is already
// cataloged, and returns the catalog size afterwards.
func (s *CatalogService) BulkIngest(ctx context.Context, entries []domain.ReadingListEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.bulkIngest(ctx, entries)
}

func (s *CatalogService) bulkIngest(ctx context.Context, entries []domain.ReadingListEntry) (int64, error) {
	var total int64
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.entries.BulkInsert(txCtx, entries); err != nil {
			return fmt.Errorf("insert entries: %w", err)
		}
		n, err := s.entries.Count(txCtx)
		if err != nil {
			return fmt.Errorf("count entries: %w", err)
		}
		total = n
		return nil
	})
	if err != nil {
		return 0, storeError(err)
	}
	return total, nil
}

// Ingest is BulkIngest with the catalog size measured before and after the
// insert in the same transaction.
func (s *CatalogService) Ingest(ctx context.Context, entries []domain.ReadingListEntry) (before, after int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		n, err := s.entries.Count(txCtx)
		if err != nil {
			return fmt.Errorf("count entries: %w", err)
		}
		before = n

		if err := s.entries.BulkInsert(txCtx, entries); err != nil {
			return fmt.Errorf("insert entries: %w", err)
		}

		n, err = s.entries.Count(txCtx)
		if err != nil {
			return fmt.Errorf("count entries: %w", err)
		}
		after = n
		return nil
	})
	if err != nil {
		return 0, 0, storeError(err)
	}
	return before, after, nil
}

// CreateEntry catalogs a hand-written body dated today and returns its id.
// When the URL is already cataloged the existing id is returned and the
// stored entry is left untouched. Scan failures are returned as is.
func (s *CatalogService) CreateEntry(ctx context.Context, bodyText string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := journal.ScanBody(s.today(), bodyText)
	if err != nil {
		return 0, err
	}

	if _, err := s.bulkIngest(ctx, []domain.ReadingListEntry{entry}); err != nil {
		return 0, err
	}

	id, err := s.entries.IDByURL(ctx, entry.URL.String())
	if err != nil {
		return 0, storeError(fmt.Errorf("look up %s: %w", entry.URL, err))
	}

	s.logger.Info("entry created", "id", id, "url", entry.URL.String())
	return id, nil
}

// UpdateEntry replaces the body text and read state of an entry. Updating
// an id that does not exist is not an error.
func (s *CatalogService) UpdateEntry(ctx context.Context, id int64, bodyText string, read domain.ReadState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.entries.Update(ctx, id, bodyText, read); err != nil {
		return storeError(fmt.Errorf("update entry %d: %w", id, err))
	}
	return nil
}

// SetRoundup replaces the membership of the roundup on date with ids,
// atomically. An empty ids removes the roundup.
func (s *CatalogService) SetRoundup(ctx context.Context, date time.Time, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.roundups.Replace(txCtx, date, ids)
	})
	if err != nil {
		return storeError(err)
	}

	s.logger.Info("roundup saved", "date", domain.FormatDate(date), "entries", len(ids))
	return nil
}

func (s *CatalogService) ListRoundups(ctx context.Context) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates, err := s.roundups.Dates(ctx)
	if err != nil {
		return nil, storeError(fmt.Errorf("list roundups: %w", err))
	}
	return dates, nil
}

func (s *CatalogService) ListRoundupsByEntry(ctx context.Context, id int64) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates, err := s.roundups.DatesByEntry(ctx, id)
	if err != nil {
		return nil, storeError(fmt.Errorf("list roundups of entry %d: %w", id, err))
	}
	return dates, nil
}

func (s *CatalogService) ListEntries(ctx context.Context) ([]domain.CatalogRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.entries.List(ctx)
	if err != nil {
		return nil, storeError(fmt.Errorf("list entries: %w", err))
	}
	return rows, nil
}

// GetRoundup lists every entry as a candidate for the roundup on date,
// members first.
func (s *CatalogService) GetRoundup(ctx context.Context, date time.Time) ([]domain.RoundupRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.roundups.Candidates(ctx, date)
	if err != nil {
		return nil, storeError(fmt.Errorf("get roundup %s: %w", domain.FormatDate(date), err))
	}
	return rows, nil
}

// GetEntry returns domain.ErrNotFound when no entry has the id.
func (s *CatalogService) GetEntry(ctx context.Context, id int64) (*domain.CatalogRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.entries.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, storeError(fmt.Errorf("get entry %d: %w", id, err))
	}
	return row, nil
}

func (s *CatalogService) ComposeRoundupMarkdown(ctx context.Context, date time.Time) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bodies, err := s.roundups.Bodies(ctx, date)
	if err != nil {
		return nil, storeError(fmt.Errorf("roundup bodies %s: %w", domain.FormatDate(date), err))
	}
	return export.Compose(date, bodies), nil
}

// PublishRoundup composes the roundup on date and hands it to the
// publisher.
func (s *CatalogService) PublishRoundup(ctx context.Context, date time.Time) error {
	if s.publisher == nil {
		return ErrPublishingDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bodies, err := s.roundups.Bodies(ctx, date)
	if err != nil {
		return storeError(fmt.Errorf("roundup bodies %s: %w", domain.FormatDate(date), err))
	}

	doc := export.Document(date, bodies)
	if err := s.publisher.PublishRoundup(ctx, doc); err != nil {
		return fmt.Errorf("publish roundup %s: %w", domain.FormatDate(date), err)
	}

	s.logger.Info("roundup published", "date", domain.FormatDate(date), "entries", len(bodies))
	return nil
}
