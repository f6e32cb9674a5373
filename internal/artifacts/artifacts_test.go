package artifacts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWritePostRecord(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "posts")
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	path, err := WritePostRecord(dir, "p1", "https://x/p/1", ts, "สินเชื่อเงินสด")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(path)
	want := "URL: https://x/p/1\nTimestamp: 2026-01-02T03:04:05Z\nCaption: สินเชื่อเงินสด"
	if string(data) != want {
		t.Errorf("unexpected record:\n%s", data)
	}
}

func TestPurge(t *testing.T) {
	root := t.TempDir()
	media := filepath.Join(root, "posts")
	cache := filepath.Join(root, "cache")
	os.MkdirAll(filepath.Join(media, "keep"), 0o755)
	os.MkdirAll(cache, 0o755)
	for _, p := range []string{filepath.Join(media, "a.jpg"), filepath.Join(media, "a.txt"), filepath.Join(cache, "a_gemini.txt")} {
		os.WriteFile(p, []byte("x"), 0o644)
	}

	p := NewPurger(nil, media, filepath.Join(root, "missing"))
	if err := p.Purge(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := CountFiles(media); n != 0 {
		t.Errorf("expected media dir emptied, got %d files", n)
	}
	if _, err := os.Stat(filepath.Join(media, "keep")); err != nil {
		t.Error("expected subdirectory to be kept")
	}
	if n := CountFiles(cache); n != 1 {
		t.Errorf("expected cache untouched, got %d files", n)
	}
}

func TestCountFilesMissingDir(t *testing.T) {
	if n := CountFiles(filepath.Join(t.TempDir(), strings.Repeat("x", 3))); n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
}
