package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"reading_roundup/internal/domain"
)

type RoundupStore struct {
	db *sqlx.DB
}

func NewRoundupStore(db *sqlx.DB) *RoundupStore {
	return &RoundupStore{db: db}
}

// Replace sets the membership of the roundup on date to exactly ids. It
// must run inside a transaction for readers to never see a partial set.
func (s *RoundupStore) Replace(ctx context.Context, date time.Time, ids []int64) error {
	ex := GetExecutor(ctx, s.db)
	day := domain.FormatDate(date)

	if _, err := ex.ExecContext(ctx, ex.Rebind("DELETE FROM roundup_contents WHERE date = ?"), day); err != nil {
		return fmt.Errorf("clear roundup %s: %w", day, err)
	}
	if len(ids) == 0 {
		return nil
	}

	stmt, err := sqlx.PreparexContext(ctx, ex, ex.Rebind("INSERT INTO roundup_contents (date, entry) VALUES (?, ?)"))
	if err != nil {
		return fmt.Errorf("prepare membership insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, day, id); err != nil {
			return fmt.Errorf("add entry %d to roundup %s: %w", id, day, err)
		}
	}
	return nil
}

func (s *RoundupStore) Dates(ctx context.Context) ([]time.Time, error) {
	var days []string
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &days,
		"SELECT DISTINCT date FROM roundup_contents ORDER BY date ASC")
	if err != nil {
		return nil, err
	}
	return parseDates(days)
}

func (s *RoundupStore) DatesByEntry(ctx context.Context, id int64) ([]time.Time, error) {
	ex := GetExecutor(ctx, s.db)
	var days []string
	err := sqlx.SelectContext(ctx, ex, &days,
		ex.Rebind("SELECT DISTINCT date FROM roundup_contents WHERE entry = ? ORDER BY date ASC"), id)
	if err != nil {
		return nil, err
	}
	return parseDates(days)
}

// Candidates lists every entry for the roundup editor: members of the
// roundup first, then the least-used and oldest entries.
func (s *RoundupStore) Candidates(ctx context.Context, date time.Time) ([]domain.RoundupRow, error) {
	ex := GetExecutor(ctx, s.db)
	query := `
		SELECT r.id, r.url, r.source_date, r.original_text, r.body_text, r.read,
			COALESCE(counts.roundups, 0) AS roundups,
			COALESCE(members.included, 0) AS included
		FROM reading_list r` + roundupCountsJoin + `
		LEFT JOIN (
			SELECT DISTINCT entry, 1 AS included
			FROM roundup_contents
			WHERE date = ?
		) members ON r.id = members.entry
		ORDER BY included DESC, roundups ASC, r.source_date ASC, r.id ASC`

	var rows []entryRow
	if err := sqlx.SelectContext(ctx, ex, &rows, ex.Rebind(query), domain.FormatDate(date)); err != nil {
		return nil, err
	}

	result := make([]domain.RoundupRow, 0, len(rows))
	for _, row := range rows {
		entry, err := row.entry()
		if err != nil {
			return nil, err
		}
		result = append(result, domain.RoundupRow{
			Entry:    entry,
			Roundups: int(row.Roundups),
			Included: row.Included,
		})
	}
	return result, nil
}

// Bodies returns the body text of every member of the roundup on date.
// Memberships pointing at missing entries are skipped.
func (s *RoundupStore) Bodies(ctx context.Context, date time.Time) ([]string, error) {
	ex := GetExecutor(ctx, s.db)
	query := `
		SELECT r.body_text
		FROM roundup_contents rc
		JOIN reading_list r ON r.id = rc.entry
		WHERE rc.date = ?`

	var bodies []string
	if err := sqlx.SelectContext(ctx, ex, &bodies, ex.Rebind(query), domain.FormatDate(date)); err != nil {
		return nil, err
	}
	return bodies, nil
}

func parseDates(days []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(days))
	for _, day := range days {
		d, err := domain.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("decode roundup date %q: %w", day, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}
