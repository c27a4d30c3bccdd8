// Package cache stores plan expansions on disk so repeated runs of the
// same checklist and bindings skip condition evaluation. Entries are
// advisory: anything missing, corrupt, or from another cache version is
// ignored and recomputed.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/expr"
	"github.com/colonyops/tick/internal/core/plan"
)

// Version invalidates all prior entries when the entry layout changes.
const Version = 1

const dirName = "tick"

// Entry is the stored form of one plan expansion.
type Entry struct {
	Version   int             `json:"version"`
	Items     []plan.Runnable `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
}

// Stats summarizes cache contents.
type Stats struct {
	Entries    int   `json:"entries"`
	TotalBytes int64 `json:"total_bytes"`
}

// Cache is a directory of JSON expansion entries keyed by checklist digest
// plus bindings hash.
type Cache struct {
	dir string
}

// DefaultDir resolves the cache directory: $TICK_CACHE_DIR, else the
// user cache dir plus "tick".
func DefaultDir() (string, error) {
	if override := os.Getenv("TICK_CACHE_DIR"); override != "" {
		return override, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, dirName), nil
}

// New creates a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

// Key derives the entry filename for a checklist + bindings pair.
func (c *Cache) Key(cl *checklist.Checklist, bindings expr.Bindings) (string, error) {
	digest, err := checklist.Digest(cl)
	if err != nil {
		return "", err
	}
	bh, err := hashstructure.Hash(map[string]any(bindings), hashstructure.FormatV2, nil)
	if err != nil {
		return "", fmt.Errorf("hash bindings: %w", err)
	}
	return fmt.Sprintf("%s-%016x", digest, bh), nil
}

// ReadExpansion returns the cached plan for the pair, or nil on any miss.
func (c *Cache) ReadExpansion(cl *checklist.Checklist, bindings expr.Bindings) []plan.Runnable {
	key, err := c.Key(cl, bindings)
	if err != nil {
		return nil
	}
	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		return nil
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}
	if entry.Version != Version {
		return nil
	}
	return entry.Items
}

// WriteExpansion stores a computed plan. Write failures are swallowed; the
// cache never blocks a run.
func (c *Cache) WriteExpansion(cl *checklist.Checklist, bindings expr.Bindings, items []plan.Runnable) {
	key, err := c.Key(cl, bindings)
	if err != nil {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return
	}
	entry := Entry{
		Version:   Version,
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = os.WriteFile(c.entryPath(key), data, 0o644)
}

// Stats walks the cache directory.
func (c *Cache) Stats() (Stats, error) {
	var stats Stats
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return stats, err
	}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
	}
	return stats, nil
}

// Clean removes every cache entry.
func (c *Cache) Clean() error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove cache entry: %w", err)
		}
	}
	return nil
}

// Prune removes entries older than maxAge.
func (c *Cache) Prune(maxAge time.Duration) (removed int, err error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}
