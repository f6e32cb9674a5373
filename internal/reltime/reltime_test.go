package reltime

import (
	"testing"
	"time"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestNormalizeExamples(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"3h", now.Add(-3 * time.Hour), true},
		{"3H", now.Add(-3 * time.Hour), true},
		{"just now", now, true},
		{"Just now", now, true},
		{"", now, false},
		{"   ", now, false},
		{"2w", now.Add(-14 * 24 * time.Hour), true},
		{"45m", now.Add(-45 * time.Minute), true},
		{"2d", now.Add(-48 * time.Hour), true},
		{"yesterday-ish", now, false},
		{"5 months ago", now, false},
		{"3 minutes", now, false},
	}
	for _, tt := range tests {
		got, ok := Normalize(tt.in, now)
		if !got.Equal(tt.want) {
			t.Errorf("Normalize(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if ok != tt.wantOK {
			t.Errorf("Normalize(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
		}
	}
}

func TestNormalizeAbsolute(t *testing.T) {
	got, ok := Normalize("2025-11-02T08:30:00.000Z", now)
	if !ok {
		t.Fatal("expected absolute timestamp to be recognized")
	}
	want := time.Date(2025, 11, 2, 8, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNormalizeEmbeddedRelative(t *testing.T) {
	got, ok := Normalize("Posted 5h ago", now)
	if !ok {
		t.Fatal("expected embedded relative time to be recognized")
	}
	if !got.Equal(now.Add(-5 * time.Hour)) {
		t.Errorf("expected now-5h, got %v", got)
	}
}
