package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"

	"reading_roundup/internal/domain"
)

type entryRow struct {
	ID           int64        `db:"id"`
	URL          string       `db:"url"`
	SourceDate   string       `db:"source_date"`
	OriginalText string       `db:"original_text"`
	BodyText     string       `db:"body_text"`
	Read         sql.NullBool `db:"read"`
	Roundups     int64        `db:"roundups"`
	Included     bool         `db:"included"`
}

func (r entryRow) entry() (domain.ReadingListEntry, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return domain.ReadingListEntry{}, fmt.Errorf("decode url of entry %d: %w", r.ID, err)
	}
	date, err := domain.ParseDate(r.SourceDate)
	if err != nil {
		return domain.ReadingListEntry{}, fmt.Errorf("decode source date of entry %d: %w", r.ID, err)
	}
	return domain.ReadingListEntry{
		ID:           r.ID,
		URL:          u,
		SourceDate:   date,
		OriginalText: r.OriginalText,
		BodyText:     r.BodyText,
		Read:         readFromNull(r.Read),
	}, nil
}

func readToNull(r domain.ReadState) sql.NullBool {
	switch r {
	case domain.ReadDone:
		return sql.NullBool{Bool: true, Valid: true}
	case domain.ReadToBeRead:
		return sql.NullBool{Bool: false, Valid: true}
	default:
		return sql.NullBool{}
	}
}

func readFromNull(b sql.NullBool) domain.ReadState {
	switch {
	case !b.Valid:
		return domain.ReadUnknown
	case b.Bool:
		return domain.ReadDone
	default:
		return domain.ReadToBeRead
	}
}

const roundupCountsJoin = `
		LEFT JOIN (
			SELECT entry, COUNT(DISTINCT date) AS roundups
			FROM roundup_contents
			GROUP BY entry
		) counts ON r.id = counts.entry`

type EntryStore struct {
	db *sqlx.DB
}

func NewEntryStore(db *sqlx.DB) *EntryStore {
	return &EntryStore{db: db}
}

// BulkInsert adds entries keyed on URL. An entry whose URL is already
// cataloged leaves the existing row untouched.
func (s *EntryStore) BulkInsert(ctx context.Context, entries []domain.ReadingListEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ex := GetExecutor(ctx, s.db)
	query := `
		INSERT INTO reading_list
			(url, source_date, original_text, body_text, read)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (url) DO NOTHING`

	stmt, err := sqlx.PreparexContext(ctx, ex, ex.Rebind(query))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx,
			e.URL.String(),
			domain.FormatDate(e.SourceDate),
			e.OriginalText,
			e.BodyText,
			readToNull(e.Read),
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", e.URL, err)
		}
	}
	return nil
}

func (s *EntryStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &n, "SELECT COUNT(*) FROM reading_list")
	return n, err
}

func (s *EntryStore) IDByURL(ctx context.Context, u string) (int64, error) {
	ex := GetExecutor(ctx, s.db)
	var id int64
	err := sqlx.GetContext(ctx, ex, &id, ex.Rebind("SELECT id FROM reading_list WHERE url = ?"), u)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

// Update replaces the editable fields of an entry. A missing id updates
// nothing and is not an error.
func (s *EntryStore) Update(ctx context.Context, id int64, bodyText string, read domain.ReadState) error {
	ex := GetExecutor(ctx, s.db)
	_, err := ex.ExecContext(ctx,
		ex.Rebind("UPDATE reading_list SET body_text = ?, read = ? WHERE id = ?"),
		bodyText, readToNull(read), id,
	)
	return err
}

func (s *EntryStore) Get(ctx context.Context, id int64) (*domain.CatalogRow, error) {
	ex := GetExecutor(ctx, s.db)
	query := `
		SELECT r.id, r.url, r.source_date, r.original_text, r.body_text, r.read,
			COALESCE(counts.roundups, 0) AS roundups
		FROM reading_list r` + roundupCountsJoin + `
		WHERE r.id = ?`

	var row entryRow
	err := sqlx.GetContext(ctx, ex, &row, ex.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entry, err := row.entry()
	if err != nil {
		return nil, err
	}
	return &domain.CatalogRow{Entry: entry, Roundups: int(row.Roundups)}, nil
}

// List returns every entry, least-used first and oldest first within the
// same usage.
func (s *EntryStore) List(ctx context.Context) ([]domain.CatalogRow, error) {
	query := `
		SELECT r.id, r.url, r.source_date, r.original_text, r.body_text, r.read,
			COALESCE(counts.roundups, 0) AS roundups
		FROM reading_list r` + roundupCountsJoin + `
		ORDER BY roundups ASC, r.source_date ASC, r.id ASC`

	var rows []entryRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query); err != nil {
		return nil, err
	}

	result := make([]domain.CatalogRow, 0, len(rows))
	for _, row := range rows {
		entry, err := row.entry()
		if err != nil {
			return nil, err
		}
		result = append(result, domain.CatalogRow{Entry: entry, Roundups: int(row.Roundups)})
	}
	return result, nil
}
