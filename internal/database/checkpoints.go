package database

import (
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// CheckpointSet is the in-memory view of processed posts, keyed by fingerprint.
type CheckpointSet struct {
	entries map[string]CheckpointEntry
}

// NewCheckpointSet returns an empty set.
func NewCheckpointSet() *CheckpointSet {
	return &CheckpointSet{entries: make(map[string]CheckpointEntry)}
}

// Contains reports whether fingerprint has been processed.
func (s *CheckpointSet) Contains(fingerprint string) bool {
	_, ok := s.entries[fingerprint]
	return ok
}

// Add records fingerprint as processed. Re-adding keeps the first entry.
func (s *CheckpointSet) Add(fingerprint, url string, at time.Time) {
	if fingerprint == "" || s.Contains(fingerprint) {
		return
	}
	s.entries[fingerprint] = CheckpointEntry{Fingerprint: fingerprint, URL: url, ProcessedAt: at.UTC()}
}

// Remove forgets fingerprint. It reports whether it was present.
func (s *CheckpointSet) Remove(fingerprint string) bool {
	if !s.Contains(fingerprint) {
		return false
	}
	delete(s.entries, fingerprint)
	return true
}

// Len returns the number of processed posts.
func (s *CheckpointSet) Len() int {
	return len(s.entries)
}

// Entries returns all entries, oldest first.
func (s *CheckpointSet) Entries() []CheckpointEntry {
	out := make([]CheckpointEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProcessedAt.Equal(out[j].ProcessedAt) {
			return out[i].Fingerprint < out[j].Fingerprint
		}
		return out[i].ProcessedAt.Before(out[j].ProcessedAt)
	})
	return out
}

// LoadCheckpoint reads the whole checkpoint. A fresh database yields an empty set.
func (db *DB) LoadCheckpoint() (*CheckpointSet, error) {
	rows, err := sq.Select("fingerprint", "url", "processed_at").
		From("checkpoints").
		RunWith(db.conn).
		Query()
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}
	defer rows.Close()

	set := NewCheckpointSet()
	for rows.Next() {
		var e CheckpointEntry
		var processedAt string
		if err := rows.Scan(&e.Fingerprint, &e.URL, &processedAt); err != nil {
			return nil, fmt.Errorf("scanning checkpoint: %w", err)
		}
		at, err := time.Parse(time.RFC3339, processedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning checkpoint %s: processed_at: %w", e.Fingerprint, err)
		}
		e.ProcessedAt = at
		set.entries[e.Fingerprint] = e
	}
	return set, rows.Err()
}

// SaveCheckpoint replaces the stored checkpoint with set in one transaction,
// so readers see either the previous or the new checkpoint, never a mix.
func (db *DB) SaveCheckpoint(set *CheckpointSet) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin checkpoint save: %w", err)
	}
	defer tx.Rollback()

	if _, err := sq.Delete("checkpoints").RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("clearing checkpoint: %w", err)
	}

	for _, e := range set.Entries() {
		_, err := sq.Insert("checkpoints").
			Columns("fingerprint", "url", "processed_at").
			Values(e.Fingerprint, e.URL, e.ProcessedAt.UTC().Format(time.RFC3339)).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("writing checkpoint %s: %w", e.Fingerprint, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}
