package catalog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"reading_roundup/internal/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrNotFound = domain.ErrNotFound

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Config selects the catalog backend. Path is the SQLite database file;
// DSN is the Postgres connection string.
type Config struct {
	Driver string
	Path   string
	DSN    string
}

var sqlitePragmas = []string{
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=OFF",
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
}

// Open connects to the catalog. The handle is limited to one connection:
// the catalog has a single writer and every statement goes through it.
// The schema must already exist.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Driver {
	case DriverSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite catalog: path is required")
		}
		db, err = sqlx.Open(DriverSQLite, cfg.Path)
	case DriverPostgres:
		db, err = sqlx.Open(DriverPostgres, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	if db.DriverName() == DriverSQLite {
		for _, pragma := range sqlitePragmas {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("%s: %w", pragma, err)
			}
		}
	}

	return db, nil
}
