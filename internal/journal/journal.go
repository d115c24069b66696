// Package journal records every demo run (what was fetched, how it ended) in
// a local SQLite file so the CLI can list past runs.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const DefaultPath = "hyperdemos.db"

const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Run struct {
	ID         string
	Kind       string
	Target     string
	Status     string
	Excluded   int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Recorder is what services need from the journal.
type Recorder interface {
	Start(ctx context.Context, kind, target string) (Run, error)
	Finish(ctx context.Context, run Run, excluded int, runErr error) error
}

type Journal struct {
	db  *sql.DB
	now func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	target      TEXT NOT NULL,
	status      TEXT NOT NULL,
	excluded    INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
`

// Open opens or creates the journal at path. ":memory:" is accepted.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

func (j *Journal) Start(ctx context.Context, kind, target string) (Run, error) {
	r := Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Target:    target,
		Status:    StatusRunning,
		StartedAt: j.now().UTC(),
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, target, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Kind, r.Target, r.Status, r.StartedAt.UnixMilli())
	if err != nil {
		return Run{}, fmt.Errorf("record run start: %w", err)
	}
	return r, nil
}

func (j *Journal) Finish(ctx context.Context, run Run, excluded int, runErr error) error {
	status, msg := StatusSucceeded, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, excluded = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, excluded, msg, j.now().UTC().UnixMilli(), run.ID)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record run finish: unknown run %s", run.ID)
	}
	return nil
}

// List returns the most recent runs first.
func (j *Journal) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, target, status, excluded, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.Kind, &r.Target, &r.Status, &r.Excluded, &r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		if finished > 0 {
			r.FinishedAt = time.UnixMilli(finished).UTC()
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type nop struct{}

// Nop discards runs.
func Nop() Recorder { return nop{} }

func (nop) Start(_ context.Context, kind, target string) (Run, error) {
	return Run{Kind: kind, Target: target, Status: StatusRunning, StartedAt: time.Now().UTC()}, nil
}

func (nop) Finish(context.Context, Run, int, error) error { return nil }
