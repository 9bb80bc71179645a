package service

import (
	"context"
	"log/slog"
	"time"

	"reading_roundup/internal/domain"
)

// SyncService brings the catalog up to date with a source.
type SyncService struct {
	source  Source
	catalog *CatalogService
	logger  *slog.Logger
}

func NewSyncService(source Source, catalog *CatalogService, logger *slog.Logger) *SyncService {
	return &SyncService{
		source:  source,
		catalog: catalog,
		logger:  logger.With("source", source.ID()),
	}
}

// Sync scans the source and ingests everything it found. The scan runs
// without holding the catalog lock. Scan errors never abort the sync: they
// are carried in the report next to the entries of the files that did
// scan. The returned error is only ever a store failure, and the report
// is returned alongside it.
func (s *SyncService) Sync(ctx context.Context) (*domain.IngestReport, error) {
	startTime := time.Now()
	s.logger.Info("starting sync", "source_name", s.source.Name())

	entries, scanErrs := s.source.Scan(ctx)
	for _, err := range scanErrs {
		s.logger.Warn("scan error", "error", err)
	}

	s.logger.Info("scanned source", "entries", len(entries), "errors", len(scanErrs))

	report := &domain.IngestReport{
		SourceID:   s.source.ID(),
		Found:      len(entries),
		ScanErrors: scanErrs,
	}

	before, after, err := s.catalog.Ingest(ctx, entries)
	report.Duration = time.Since(startTime)
	if err != nil {
		s.logger.Error("ingest failed", "error", err, "duration", report.Duration)
		return report, err
	}
	report.Before = before
	report.After = after

	s.logger.Info("sync completed",
		"found", report.Found,
		"added", report.Added(),
		"total", report.After,
		"scan_errors", len(report.ScanErrors),
		"duration", report.Duration,
	)

	return report, nil
}
