// Package artifacts manages the per-run files the pipeline leaves on disk:
// post records, downloaded media and cached classifier answers.
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// WritePostRecord saves the human-readable record of a post as <dir>/<name>.txt.
func WritePostRecord(dir, name, url string, ts time.Time, caption string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating posts directory: %w", err)
	}
	path := filepath.Join(dir, name+".txt")
	body := fmt.Sprintf("URL: %s\nTimestamp: %s\nCaption: %s", url, ts.UTC().Format(time.RFC3339), caption)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("writing post record: %w", err)
	}
	return path, nil
}

// Purger deletes regular files from a fixed set of directories.
type Purger struct {
	dirs []string
	log  *slog.Logger
}

// NewPurger creates a purger over dirs.
func NewPurger(log *slog.Logger, dirs ...string) *Purger {
	if log == nil {
		log = slog.Default()
	}
	return &Purger{dirs: dirs, log: log}
}

// Purge removes every regular file directly inside the configured
// directories. Missing directories are ignored; subdirectories are kept.
func (p *Purger) Purge() error {
	var errs []error
	for _, dir := range p.dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("listing %s: %w", dir, err))
			continue
		}

		removed := 0
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				errs = append(errs, err)
				continue
			}
			removed++
		}
		p.log.Info("cleared artifacts", "dir", dir, "files", removed)
	}
	return errors.Join(errs...)
}

// CountFiles returns the number of regular files directly inside dir.
func CountFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() {
			n++
		}
	}
	return n
}
