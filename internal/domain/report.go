package domain

import "time"

// IngestReport holds the outcome of one journal update.
type IngestReport struct {
	SourceID   string
	Found      int
	ScanErrors []error
	Before     int64
	After      int64
	Duration   time.Duration
}

// Added is the number of catalog rows the update created.
func (r *IngestReport) Added() int64 {
	return r.After - r.Before
}
