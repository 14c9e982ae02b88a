// Package journal records every qbfrt run in a small SQLite database of its
// own, separate from qBittorrent's torrents.db.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"qbfrt/internal/config"
	"qbfrt/internal/journal/migrations"
	"qbfrt/internal/qbfrt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// FileName is the journal database name inside the data directory.
const FileName = "qbfrt.db"

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	// StatusPartial means the run completed but some torrents failed.
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one invocation of a qbfrt command.
type Run struct {
	RunID        string
	Operation    string
	Parameters   string
	DatabasePath string
	StartedAt    time.Time
	FinishedAt   *time.Time
	Status       string
	// Written counts torrents updated by an edit or files written by a dump.
	Written    int
	Unchanged  int
	Failed     int
	BackupName string
}

// Failure is a torrent that could not be processed during a run.
type Failure struct {
	TorrentID string
	Outcome   string
	Message   string
}

// Journal stores runs.
type Journal struct {
	db *sql.DB
}

// NewJournalFromConfig opens the journal selected by cfg.
func NewJournalFromConfig(cfg config.JournalConfig) (*Journal, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite journal")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
		return Open(filepath.Join(cfg.DataDir, FileName))
	case "memory":
		return Open(":memory:")
	default:
		return nil, fmt.Errorf("unknown journal type: %s", cfg.Type)
	}
}

// Open opens or creates the journal at path, brings its schema up to date
// and verifies the resulting version.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// One connection keeps the foreign_keys pragma in effect and makes
	// :memory: a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	if err := migrations.CheckStatus(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// StartRun inserts run with status running.
func (j *Journal) StartRun(ctx context.Context, run *Run) error {
	run.Status = StatusRunning
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, operation, parameters, database_path, started_at, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Operation, run.Parameters, run.DatabasePath, run.StartedAt.UTC(), run.Status,
	)
	if err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}
	return nil
}

// SetBackup records the name of the backup taken for a run.
func (j *Journal) SetBackup(ctx context.Context, runID, backupName string) error {
	return j.exec(ctx, `UPDATE runs SET backup_name = ? WHERE run_id = ?`, backupName, runID)
}

// RecordFailure stores a torrent that failed during a run.
func (j *Journal) RecordFailure(ctx context.Context, runID string, f Failure) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO run_failures (run_id, torrent_id, outcome, message) VALUES (?, ?, ?, ?)`,
		runID, f.TorrentID, f.Outcome, f.Message,
	)
	if err != nil {
		return fmt.Errorf("recording failure: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a run. The status is derived from the
// summary unless runErr is set, in which case the run failed.
func (j *Journal) FinishRun(ctx context.Context, runID string, finishedAt time.Time, summary qbfrt.Summary, runErr error) error {
	status := StatusSucceeded
	switch {
	case runErr != nil:
		status = StatusFailed
	case summary.Failed > 0:
		status = StatusPartial
	}

	return j.exec(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, updated = ?, unchanged = ?, failed = ? WHERE run_id = ?`,
		finishedAt.UTC(), status, summary.Updated+summary.Dumped, summary.Unchanged, summary.Failed, runID,
	)
}

func (j *Journal) exec(ctx context.Context, query string, args ...any) error {
	res, err := j.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, operation, parameters, database_path, started_at, finished_at,
		        status, updated, unchanged, failed, backup_name
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			r        Run
			finished sql.NullTime
			backup   sql.NullString
		)
		if err := rows.Scan(&r.RunID, &r.Operation, &r.Parameters, &r.DatabasePath, &r.StartedAt,
			&finished, &r.Status, &r.Written, &r.Unchanged, &r.Failed, &backup); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		r.BackupName = backup.String
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// Failures returns the failures recorded for a run.
func (j *Journal) Failures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT torrent_id, outcome, message FROM run_failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.TorrentID, &f.Outcome, &f.Message); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
