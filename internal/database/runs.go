package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/oklog/ulid/v2"
)

// NewRunID returns a sortable run identifier.
func NewRunID() string {
	return ulid.Make().String()
}

// InsertRun stores a run report.
func (db *DB) InsertRun(r RunReport) error {
	if r.ID == "" {
		r.ID = NewRunID()
	}
	_, err := sq.Insert("runs").
		Columns("id", "started_at", "finished_at", "discovered", "processed", "deduped", "cache_hits", "alerts", "failed", "dry_run").
		Values(r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.FinishedAt.UTC().Format(time.RFC3339),
			r.Discovered, r.Processed, r.Deduped, r.CacheHits, r.Alerts, r.Failed, boolToInt(r.DryRun)).
		RunWith(db.conn).
		Exec()
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", r.ID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(limit int) ([]RunReport, error) {
	rows, err := sq.Select("id", "started_at", "finished_at", "discovered", "processed", "deduped", "cache_hits", "alerts", "failed", "dry_run").
		From("runs").
		OrderBy("started_at DESC", "id DESC").
		Limit(uint64(limit)).
		RunWith(db.conn).
		Query()
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunReport
	for rows.Next() {
		var r RunReport
		var started, finished string
		var dry int
		if err := rows.Scan(&r.ID, &started, &finished, &r.Discovered, &r.Processed, &r.Deduped,
			&r.CacheHits, &r.Alerts, &r.Failed, &dry); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		r.DryRun = dry != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	var s Stats
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM checkpoints").Scan(&s.Checkpoints); err != nil {
		return nil, fmt.Errorf("counting checkpoints: %w", err)
	}

	var alerts sql.NullInt64
	var last sql.NullString
	err := db.conn.QueryRow("SELECT COUNT(*), SUM(alerts), MAX(started_at) FROM runs WHERE dry_run = 0").
		Scan(&s.Runs, &alerts, &last)
	if err != nil {
		return nil, fmt.Errorf("summarizing runs: %w", err)
	}
	s.TotalAlerts = int(alerts.Int64)
	if last.Valid {
		if t, err := time.Parse(time.RFC3339, last.String); err == nil {
			s.LastRunAt = &t
		}
	}
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
