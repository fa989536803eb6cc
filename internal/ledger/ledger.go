// Package ledger records every transform and check run in a SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sells-group/meshclimate/internal/resilience"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = eris.New("ledger: run not found")

// Run is one ledger entry.
type Run struct {
	ID          string     `json:"id" yaml:"id"`
	Command     string     `json:"command" yaml:"command"`
	Source      string     `json:"source" yaml:"source"`
	Status      Status     `json:"status" yaml:"status"`
	Units       int        `json:"units" yaml:"units"`
	Written     int        `json:"written" yaml:"written"`
	Skipped     int        `json:"skipped" yaml:"skipped"`
	Differences int        `json:"differences" yaml:"differences"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// Counts are the outcome figures stored when a run finishes.
type Counts struct {
	Written     int
	Skipped     int
	Differences int
}

// Ledger is a SQLite-backed run history.
type Ledger struct {
	db    *sql.DB
	clock clockwork.Clock
	retry resilience.RetryConfig
}

// Open opens the database at dsn and configures WAL mode.
func Open(dsn string, clock clockwork.Clock) (*Ledger, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "ledger: exec %s", pragma)
		}
	}
	retry := resilience.DefaultRetryConfig()
	retry.ShouldRetry = isBusy
	retry.OnRetry = resilience.RetryLogger("ledger", "write")
	return &Ledger{db: db, clock: clock, retry: retry}, nil
}

// isBusy reports whether err is SQLite lock contention from another
// process sharing the ledger file.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// exec runs a write statement, retrying while the database is locked.
func (l *Ledger) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return resilience.DoVal(ctx, l.retry, func(ctx context.Context) (sql.Result, error) {
		return l.db.ExecContext(ctx, query, args...)
	})
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	source      TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	units       INTEGER NOT NULL DEFAULT 0,
	written     INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	differences INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (l *Ledger) Migrate(ctx context.Context) error {
	_, err := l.exec(ctx, migration)
	return eris.Wrap(err, "ledger: migrate")
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Start records a new running entry.
func (l *Ledger) Start(ctx context.Context, command, source string, units int) (*Run, error) {
	id := uuid.New().String()
	now := l.clock.Now().UTC()

	_, err := l.exec(ctx,
		`INSERT INTO runs (id, command, source, status, units, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, command, source, string(StatusRunning), units, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: insert run")
	}

	return &Run{
		ID:        id,
		Command:   command,
		Source:    source,
		Status:    StatusRunning,
		Units:     units,
		StartedAt: now,
	}, nil
}

// Complete marks a run as finished successfully.
func (l *Ledger) Complete(ctx context.Context, id string, c Counts) error {
	return l.finish(ctx, id, StatusComplete, c, "")
}

// Fail marks a run as failed with the cause.
func (l *Ledger) Fail(ctx context.Context, id string, c Counts, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return l.finish(ctx, id, StatusFailed, c, msg)
}

func (l *Ledger) finish(ctx context.Context, id string, status Status, c Counts, msg string) error {
	var errText sql.NullString
	if msg != "" {
		errText = sql.NullString{String: msg, Valid: true}
	}
	res, err := l.exec(ctx,
		`UPDATE runs SET status = ?, written = ?, skipped = ?, differences = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), c.Written, c.Skipped, c.Differences, errText, l.clock.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "ledger: finish run %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "ledger: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrRunNotFound, "%s", id)
	}
	return nil
}

const selectRun = `SELECT id, command, source, status, units, written, skipped, differences, error, started_at, finished_at FROM runs`

// Get returns one run.
func (l *Ledger) Get(ctx context.Context, id string) (*Run, error) {
	return scanRun(l.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
}

// List returns the most recent runs first. A non-positive limit means 100.
func (l *Ledger) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, selectRun+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "ledger: list runs iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var (
		r        Run
		errText  sql.NullString
		finished sql.NullTime
	)
	err := row.Scan(&r.ID, &r.Command, &r.Source, &r.Status, &r.Units, &r.Written, &r.Skipped,
		&r.Differences, &errText, &r.StartedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "ledger: scan run")
	}
	r.Error = errText.String
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}
