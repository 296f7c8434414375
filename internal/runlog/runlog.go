// Package runlog records pipeline invocations in a local sqlite database so
// long batch runs can be audited after the fact.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/coastal-group/tidegate-cli/internal/errs"
)

// Status of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one pipeline invocation.
type Run struct {
	ID         string
	DEM        string
	Zones      string
	Output     string
	Elevations []float64
	Status     Status
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store persists runs using modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// Open opens the run log at the given path and configures WAL mode.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	dem        TEXT NOT NULL,
	zones      TEXT NOT NULL,
	output     TEXT NOT NULL,
	elevations TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "runlog: migrate")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new run in the running state.
func (s *Store) Create(ctx context.Context, dem, zones, output string, elevations []float64) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	elevJSON, err := json.Marshal(elevations)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: marshal elevations")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, dem, zones, output, elevations, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, dem, zones, output, string(elevJSON), string(StatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: insert run")
	}

	return &Run{
		ID:         id,
		DEM:        dem,
		Zones:      zones,
		Output:     output,
		Elevations: elevations,
		Status:     StatusRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Complete marks a run completed.
func (s *Store) Complete(ctx context.Context, runID string) error {
	return s.finish(ctx, runID, StatusCompleted, "")
}

// Fail marks a run failed with the error text.
func (s *Store) Fail(ctx context.Context, runID string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return s.finish(ctx, runID, StatusFailed, msg)
}

func (s *Store) finish(ctx context.Context, runID string, status Status, errText string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errText, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: update run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "runlog: rows affected")
	}
	if n == 0 {
		return &errs.NotFoundError{Kind: "run", Name: runID}
	}
	return nil
}

// Get fetches one run by id.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dem, zones, output, elevations, status, error, created_at, updated_at
		 FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

// List returns runs newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, status Status, limit int) ([]Run, error) {
	query := `SELECT id, dem, zones, output, elevations, status, error, created_at, updated_at
	          FROM runs WHERE 1=1`
	var args []any

	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "runlog: list runs iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var elevJSON string
	var errText sql.NullString

	err := row.Scan(&r.ID, &r.DEM, &r.Zones, &r.Output, &elevJSON, &r.Status, &errText, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &errs.NotFoundError{Kind: "run", Name: r.ID}
	}
	if err != nil {
		return nil, eris.Wrap(err, "runlog: scan run")
	}

	if err := json.Unmarshal([]byte(elevJSON), &r.Elevations); err != nil {
		return nil, eris.Wrap(err, "runlog: unmarshal elevations")
	}
	if errText.Valid {
		r.Error = errText.String
	}
	return &r, nil
}
