// Package checkpoint persists the capture sync checkpoint and run history in
// SQLite.
package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/echovault/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id            TEXT PRIMARY KEY,
	started_at    DATETIME NOT NULL,
	finished_at   DATETIME NOT NULL,
	captures      INTEGER NOT NULL DEFAULT 0,
	todos_pushed  INTEGER NOT NULL DEFAULT 0,
	todos_created INTEGER NOT NULL DEFAULT 0,
	todos_pulled  INTEGER NOT NULL DEFAULT 0,
	errors        INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at);
`

// CaptureKey is the metadata key holding the capture checkpoint.
const CaptureKey = "capture_checkpoint"

// Epoch is the checkpoint used before any capture was acknowledged.
var Epoch = time.Unix(0, 0).UTC()

// DB wraps a sql.DB with checkpoint operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("checkpoint: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("checkpoint: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Checkpoint returns the stored capture checkpoint, or Epoch when none is set.
func (db *DB) Checkpoint(ctx context.Context) (time.Time, error) {
	var raw string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, CaptureKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Epoch, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("checkpoint: get: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("checkpoint: parse %q: %w", raw, err)
	}
	return ts, nil
}

// Advance stores ts when it is later than the current checkpoint. It returns
// the checkpoint in effect afterwards; the stored value never decreases.
func (db *DB) Advance(ctx context.Context, ts time.Time) (time.Time, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("checkpoint: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	current := Epoch
	var raw string
	err = tx.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, CaptureKey).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return time.Time{}, fmt.Errorf("checkpoint: get: %w", err)
	default:
		if current, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return time.Time{}, fmt.Errorf("checkpoint: parse %q: %w", raw, err)
		}
	}

	if !ts.After(current) {
		return current, nil
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, CaptureKey, ts.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return time.Time{}, fmt.Errorf("checkpoint: set: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return time.Time{}, fmt.Errorf("checkpoint: commit: %w", err)
	}
	return ts, nil
}

// Reset removes the stored checkpoint so the next sync starts from Epoch.
func (db *DB) Reset(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, CaptureKey); err != nil {
		return fmt.Errorf("checkpoint: reset: %w", err)
	}
	return nil
}

// RecordRun appends a finished run to the history.
func (db *DB) RecordRun(ctx context.Context, run models.SyncRun) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sync_runs (id, started_at, finished_at, captures, todos_pushed, todos_created, todos_pulled, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Captures, run.TodosPushed, run.TodosCreated, run.TodosPulled, run.Errors)
	if err != nil {
		return fmt.Errorf("checkpoint: record run: %w", err)
	}
	return nil
}

// LastRun returns the most recent run, or nil when there is none.
func (db *DB) LastRun(ctx context.Context) (*models.SyncRun, error) {
	var r models.SyncRun
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, captures, todos_pushed, todos_created, todos_pulled, errors
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Captures, &r.TodosPushed, &r.TodosCreated, &r.TodosPulled, &r.Errors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: last run: %w", err)
	}
	return &r, nil
}
