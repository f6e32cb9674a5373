package database

import "time"

// CheckpointEntry records one fully processed post.
type CheckpointEntry struct {
	Fingerprint string
	URL         string
	ProcessedAt time.Time
}

// RunReport holds metadata about a pipeline run.
type RunReport struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovered int
	Processed  int
	Deduped    int
	CacheHits  int
	Alerts     int
	Failed     int
	DryRun     bool
}

// Stats contains aggregate database statistics.
type Stats struct {
	Checkpoints int
	Runs        int
	TotalAlerts int
	LastRunAt   *time.Time
}
