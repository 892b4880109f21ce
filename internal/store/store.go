// Package store persists the material and machine library, RFQs, part
// revisions and the existing tool reference database in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/piwi3910/MoldQuote/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	migrationsDir = "migrations"
	sqliteDialect = "sqlite3"
	timeLayout    = time.RFC3339
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store is a SQLite backed record store. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens the database at path and checks connectivity. The pragmas are
// passed in the DSN so every pooled connection enforces foreign keys.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies all pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, migrationsDir); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

// SeedStats counts the records inserted by Seed.
type SeedStats struct {
	Materials int
	Machines  int
}

// Seed inserts the library presets when the store holds no material and no
// machine yet. Running it again is a no-op.
func (s *Store) Seed(ctx context.Context, lib model.Library) (SeedStats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SeedStats{}, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	stats := SeedStats{}

	var materials, machines int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM materials`).Scan(&materials); err != nil {
		return SeedStats{}, fmt.Errorf("count materials: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM machines`).Scan(&machines); err != nil {
		return SeedStats{}, fmt.Errorf("count machines: %w", err)
	}

	if materials == 0 {
		for _, m := range lib.Materials {
			if err := upsertMaterial(ctx, tx, m); err != nil {
				return SeedStats{}, err
			}
			stats.Materials++
		}
	}
	if machines == 0 {
		for _, m := range lib.Machines {
			if err := upsertMachine(ctx, tx, m); err != nil {
				return SeedStats{}, err
			}
			stats.Machines++
		}
	}

	if err := tx.Commit(); err != nil {
		return SeedStats{}, fmt.Errorf("commit seed transaction: %w", err)
	}
	return stats, nil
}

// execer is the subset of *sql.DB and *sql.Tx the write helpers need.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullable unwraps an optional field into a query argument.
func nullable[T int | float64](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
