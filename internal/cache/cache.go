// Package cache stores raw classifier responses on disk, one file per post,
// so reruns do not pay for the same classification twice.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const suffix = "_gemini.txt"

// Cache is a directory of classifier responses keyed by item key.
type Cache struct {
	dir string
}

// New creates the cache directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the directory backing the cache.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the file path used for key.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, key+suffix)
}

// Get returns the cached text for key. The bool is false on a miss.
func (c *Cache) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(c.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	return string(data), true, nil
}

// Put writes text for key, replacing any previous entry.
func (c *Cache) Put(key, text string) error {
	if key == "" {
		return errors.New("empty cache key")
	}
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), c.Path(key)); err != nil {
		return fmt.Errorf("committing cache entry %s: %w", key, err)
	}
	return nil
}

// Len counts the entries currently on disk.
func (c *Cache) Len() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+suffix))
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}
