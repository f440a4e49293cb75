// Package journal persists one record per capture run in a local SQLite
// database so run history survives restarts and is inspectable over the
// admin API. It uses modernc.org/sqlite (pure Go, no CGO) with WAL mode.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Record is one journaled run.
type Record struct {
	ID           int64     `json:"id"`
	LoginID      string    `json:"login_id"`
	Outcome      string    `json:"outcome"` // "success" or a failure reason
	ArtifactPath string    `json:"artifact_path,omitempty"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Recorder is the journal surface other modules consume
// (service "journal.runs").
type Recorder interface {
	Record(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// runStore implements Recorder backed by SQLite.
type runStore struct {
	db *sql.DB
}

// Compile-time interface guard.
var _ Recorder = (*runStore)(nil)

// Record inserts one run record.
func (s *runStore) Record(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (login_id, outcome, artifact_path, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.LoginID,
		rec.Outcome,
		rec.ArtifactPath,
		rec.Error,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("journal: inserting run for %s: %w", rec.LoginID, err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (s *runStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, login_id, outcome, artifact_path, error, started_at, finished_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: querying runs: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var started, finished string
		if err := rows.Scan(&rec.ID, &rec.LoginID, &rec.Outcome, &rec.ArtifactPath, &rec.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("journal: scanning run: %w", err)
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("journal: parsing started_at %q: %w", started, err)
		}
		if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("journal: parsing finished_at %q: %w", finished, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
