// Package runlog records per-entity pipeline runs in pit.run_log.
package runlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pitfacts/internal/db"
)

// Status values for a run log entry.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Entry is a row in pit.run_log.
type Entry struct {
	ID              int64          `json:"id"`
	RunID           uuid.UUID      `json:"run_id"`
	EntityID        string         `json:"entity_id"`
	SnapshotVersion string         `json:"snapshot_version"`
	Status          string         `json:"status"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	Facts           int64          `json:"facts"`
	Events          int64          `json:"events"`
	Metrics         int64          `json:"metrics"`
	Discards        map[string]int `json:"discards,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// Counts is what a completed entity produced.
type Counts struct {
	Facts    int64
	Events   int64
	Metrics  int64
	Discards map[string]int
}

// Log reads and writes pit.run_log.
type Log struct {
	pool db.Pool
}

// New creates a Log backed by pool.
func New(pool db.Pool) *Log {
	return &Log{pool: pool}
}

// Start records an entity run as running and returns its row ID.
func (l *Log) Start(ctx context.Context, runID uuid.UUID, entityID, snapshotVersion string) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx,
		`INSERT INTO pit.run_log (run_id, entity_id, snapshot_version, status, started_at)
		 VALUES ($1, $2, $3, 'running', now()) RETURNING id`,
		runID, entityID, snapshotVersion,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "runlog: start %s", entityID)
	}
	return id, nil
}

// Complete marks an entry complete with its output counts.
func (l *Log) Complete(ctx context.Context, id int64, c Counts) error {
	var discards []byte
	if len(c.Discards) > 0 {
		var err error
		if discards, err = json.Marshal(c.Discards); err != nil {
			return eris.Wrap(err, "runlog: marshal discards")
		}
	}
	_, err := l.pool.Exec(ctx,
		`UPDATE pit.run_log
		 SET status = 'complete', completed_at = now(), facts = $1, events = $2, metrics = $3, discards = $4
		 WHERE id = $5`,
		c.Facts, c.Events, c.Metrics, discards, id,
	)
	return eris.Wrapf(err, "runlog: complete %d", id)
}

// Fail marks an entry failed.
func (l *Log) Fail(ctx context.Context, id int64, errMsg string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE pit.run_log SET status = 'failed', completed_at = now(), error = $1 WHERE id = $2`,
		errMsg, id,
	)
	return eris.Wrapf(err, "runlog: fail %d", id)
}

// ListRecent returns up to limit entries, newest first. A limit of zero or
// less returns everything.
func (l *Log) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, run_id, entity_id, snapshot_version, status, started_at, completed_at,
		 facts, events, metrics, discards, error
		 FROM pit.run_log ORDER BY started_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var discards []byte
		var errStr *string
		if err := rows.Scan(&e.ID, &e.RunID, &e.EntityID, &e.SnapshotVersion, &e.Status, &e.StartedAt,
			&e.CompletedAt, &e.Facts, &e.Events, &e.Metrics, &discards, &errStr); err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		if errStr != nil {
			e.Error = *errStr
		}
		if discards != nil {
			_ = json.Unmarshal(discards, &e.Discards)
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "runlog: iterate")
}

// ListAll returns every entry, newest first.
func (l *Log) ListAll(ctx context.Context) ([]Entry, error) {
	return l.ListRecent(ctx, 0)
}
