package database

import (
	"testing"
	"time"

	"github.com/TobiSchelling/AdWatch/internal/fingerprint"
)

func TestParseLegacyPostList(t *testing.T) {
	data := []byte(`[{"url":"https://www.instagram.com/p/abc/?img_index=1","timestamp":"2025-09-01T10:00:00.000Z"},{"url":"","timestamp":"x"}]`)
	entries, skipped, err := ParseLegacyCheckpoint(data, t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || skipped != 1 {
		t.Fatalf("expected 1 entry and 1 skipped, got %d/%d", len(entries), skipped)
	}
	e := entries[0]
	if e.Fingerprint != fingerprint.Of("https://www.instagram.com/p/abc/") {
		t.Error("expected fingerprint of canonical URL")
	}
	if e.URL != "https://www.instagram.com/p/abc/" {
		t.Errorf("unexpected URL %q", e.URL)
	}
	if !e.ProcessedAt.Equal(time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected time %v", e.ProcessedAt)
	}
}

func TestParseLegacyIDRecord(t *testing.T) {
	entries, skipped, err := ParseLegacyCheckpoint([]byte(`{"processedPostIds":["a","b"]}`), t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 || skipped != 2 {
		t.Errorf("expected ids to be skipped, got %d/%d", len(entries), skipped)
	}
}

func TestParseLegacyInvalid(t *testing.T) {
	if _, _, err := ParseLegacyCheckpoint([]byte(`[{`), t0); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestMerge(t *testing.T) {
	set := NewCheckpointSet()
	set.Add("a", "", t0)
	added := set.Merge([]CheckpointEntry{{Fingerprint: "a"}, {Fingerprint: "b", ProcessedAt: t0}})
	if added != 1 || set.Len() != 2 {
		t.Errorf("expected 1 added and 2 total, got %d/%d", added, set.Len())
	}
}
