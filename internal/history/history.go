// Package history keeps a local ledger of bulk import runs in an
// embedded SQLite database, so an administrator can see what was
// provisioned, when, and how it went — including batches that never
// reached the server.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".

	"github.com/kedhare/gallery-cli/internal/bulk"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run is one recorded import run.
type Run struct {
	ID         int64
	File       string
	StartedAt  time.Time
	FinishedAt time.Time
	State      string
	Rows       int
	Violations int
	Created    int
	Error      string
}

// Store is the import-run ledger. Sole writer: the connection pool is
// capped at one so SQLite never sees competing writers.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the ledger database at dbPath and applies
// pending migrations. Use ":memory:" for tests.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: opening %s: %w", dbPath, err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: enabling WAL: %w", err)
	}

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// runMigrations applies all pending schema migrations.
// Uses the goose v3 Provider API (no global state, context-aware).
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("history: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("history: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("history: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Info("applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one run. Satisfies bulk.Recorder.
func (s *Store) Record(ctx context.Context, run bulk.RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_runs
			(file, started_at, finished_at, state, rows, violations, created, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.File,
		run.StartedAt.Unix(),
		run.FinishedAt.Unix(),
		run.State,
		run.Rows,
		run.Violations,
		run.Created,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("history: recording run: %w", err)
	}

	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file, started_at, finished_at, state, rows, violations, created, error
			FROM import_runs
			ORDER BY started_at DESC, id DESC
			LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		var (
			r                 Run
			started, finished int64
		)

		if err := rows.Scan(&r.ID, &r.File, &started, &finished,
			&r.State, &r.Rows, &r.Violations, &r.Created, &r.Error); err != nil {
			return nil, fmt.Errorf("history: scanning run: %w", err)
		}

		r.StartedAt = time.Unix(started, 0)
		r.FinishedAt = time.Unix(finished, 0)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating runs: %w", err)
	}

	return runs, nil
}
