package database

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestLoadCheckpointFirstRun(t *testing.T) {
	db := openTestDB(t)
	set, err := db.LoadCheckpoint()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("expected empty checkpoint, got %d", set.Len())
	}
}

func TestLoadCheckpointRejectsBadTimestamp(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.conn.Exec(`INSERT INTO checkpoints (fingerprint, url, processed_at) VALUES ('fp-bad', 'https://x/p/bad', 'yesterday')`); err != nil {
		t.Fatalf("failed to insert row: %v", err)
	}

	_, err := db.LoadCheckpoint()
	if err == nil {
		t.Fatal("expected error for corrupted processed_at")
	}
	if !strings.Contains(err.Error(), "fp-bad") {
		t.Errorf("expected error to name the row, got %v", err)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	db := openTestDB(t)
	set := NewCheckpointSet()
	set.Add("fp-a", "https://x/p/a", t0)
	set.Add("fp-b", "https://x/p/b", t0.Add(time.Minute))

	if err := db.SaveCheckpoint(set); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := db.LoadCheckpoint()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Len() != 2 || !loaded.Contains("fp-a") || !loaded.Contains("fp-b") {
		t.Fatalf("expected both fingerprints, got %+v", loaded.Entries())
	}
	entries := loaded.Entries()
	if entries[0].URL != "https://x/p/a" || !entries[0].ProcessedAt.Equal(t0) {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
}

func TestSaveCheckpointReplaces(t *testing.T) {
	db := openTestDB(t)
	first := NewCheckpointSet()
	first.Add("old", "", t0)
	if err := db.SaveCheckpoint(first); err != nil {
		t.Fatal(err)
	}

	second := NewCheckpointSet()
	second.Add("new", "", t0)
	if err := db.SaveCheckpoint(second); err != nil {
		t.Fatal(err)
	}

	loaded, _ := db.LoadCheckpoint()
	if loaded.Contains("old") || !loaded.Contains("new") {
		t.Errorf("expected checkpoint to be replaced, got %+v", loaded.Entries())
	}
}

func TestCheckpointSetAddKeepsFirst(t *testing.T) {
	set := NewCheckpointSet()
	set.Add("fp", "https://x/1", t0)
	set.Add("fp", "https://x/1?ref=2", t0.Add(time.Hour))
	set.Add("", "ignored", t0)

	if set.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", set.Len())
	}
	if e := set.Entries()[0]; e.URL != "https://x/1" || !e.ProcessedAt.Equal(t0) {
		t.Errorf("expected first entry kept, got %+v", e)
	}
}

func TestCheckpointSetRemove(t *testing.T) {
	set := NewCheckpointSet()
	set.Add("fp", "", t0)
	if !set.Remove("fp") {
		t.Error("expected removal to report presence")
	}
	if set.Remove("fp") {
		t.Error("expected second removal to report absence")
	}
}

func TestRunsAndStats(t *testing.T) {
	db := openTestDB(t)

	runs := []RunReport{
		{StartedAt: t0, FinishedAt: t0.Add(time.Minute), Discovered: 3, Processed: 2, Alerts: 1},
		{StartedAt: t0.Add(time.Hour), FinishedAt: t0.Add(time.Hour + time.Minute), Discovered: 3, Deduped: 3},
		{StartedAt: t0.Add(2 * time.Hour), FinishedAt: t0.Add(2 * time.Hour), DryRun: true, Alerts: 9},
	}
	for _, r := range runs {
		if err := db.InsertRun(r); err != nil {
			t.Fatalf("InsertRun: %v", err)
		}
	}

	recent, err := db.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(recent))
	}
	if !recent[0].DryRun || recent[1].Deduped != 3 {
		t.Errorf("expected newest first, got %+v", recent)
	}
	if recent[0].ID == "" {
		t.Error("expected generated run ID")
	}

	set := NewCheckpointSet()
	set.Add("fp", "", t0)
	db.SaveCheckpoint(set)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Checkpoints != 1 {
		t.Errorf("expected 1 checkpoint, got %d", stats.Checkpoints)
	}
	if stats.Runs != 2 || stats.TotalAlerts != 1 {
		t.Errorf("expected dry runs excluded, got %+v", stats)
	}
	if stats.LastRunAt == nil || !stats.LastRunAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("unexpected last run %v", stats.LastRunAt)
	}
}

func TestStatsEmpty(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Runs != 0 || stats.LastRunAt != nil {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}
