package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TobiSchelling/AdWatch/internal/fingerprint"
)

// legacyPost is one element of the old lastPost.json array.
type legacyPost struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

// ParseLegacyCheckpoint reads a flat JSON checkpoint written by the earlier
// scraper scripts. Two shapes exist: an array of {url, timestamp} objects,
// and {"processedPostIds": [...]} holding md5 ids. Only URL entries can be
// converted; the number of ids that could not be is returned as skipped.
func ParseLegacyCheckpoint(data []byte, now time.Time) (entries []CheckpointEntry, skipped int, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, 0, nil
	}

	if data[0] == '[' {
		var posts []legacyPost
		if err := json.Unmarshal(data, &posts); err != nil {
			return nil, 0, fmt.Errorf("parsing legacy post list: %w", err)
		}
		for _, p := range posts {
			fp := fingerprint.Of(p.URL)
			if fp == "" {
				skipped++
				continue
			}
			at := now
			if t, err := time.Parse(time.RFC3339, p.Timestamp); err == nil {
				at = t
			}
			entries = append(entries, CheckpointEntry{Fingerprint: fp, URL: fingerprint.Canonical(p.URL), ProcessedAt: at.UTC()})
		}
		return entries, skipped, nil
	}

	var record struct {
		ProcessedPostIDs []string `json:"processedPostIds"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, 0, fmt.Errorf("parsing legacy record: %w", err)
	}
	return nil, len(record.ProcessedPostIDs), nil
}

// Merge adds entries to the set, keeping existing ones. It returns the
// number of entries that were new.
func (s *CheckpointSet) Merge(entries []CheckpointEntry) int {
	added := 0
	for _, e := range entries {
		if s.Contains(e.Fingerprint) {
			continue
		}
		s.Add(e.Fingerprint, e.URL, e.ProcessedAt)
		added++
	}
	return added
}
