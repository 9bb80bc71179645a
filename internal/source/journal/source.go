package journal

import (
	"context"
	"log/slog"

	"reading_roundup/internal/domain"
)

const SourceID = "journal"

// Config holds journal source configuration.
type Config struct {
	Dir string
}

// Source exposes a journal directory as an ingestion source.
type Source struct {
	dir    string
	walker *Walker
	logger *slog.Logger
}

// New creates a new journal source.
func New(cfg Config, logger *slog.Logger) *Source {
	logger = logger.With("source", SourceID, "dir", cfg.Dir)
	return &Source{
		dir:    cfg.Dir,
		walker: NewWalker(logger),
		logger: logger,
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns the scanned directory.
func (s *Source) Name() string {
	return s.dir
}

// Scan walks the journal. Entries and errors are independent: a failing
// file never hides the entries of other files.
func (s *Source) Scan(ctx context.Context) ([]domain.ReadingListEntry, []error) {
	if err := ctx.Err(); err != nil {
		return nil, []error{err}
	}
	entries, errs := s.walker.ScanFiles(s.dir)
	s.logger.Debug("scanned journal",
		"entries", len(entries),
		"errors", len(errs),
	)
	return entries, errs
}
