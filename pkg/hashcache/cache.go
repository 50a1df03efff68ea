// Package hashcache persists the mapping from local file identity to content
// fingerprint between runs.
//
// The on-disk format is plain text, one "<identity> = <fingerprint>" pair per
// line. There is no header and no versioning; a format change needs a cold
// cache.
package hashcache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sdejongh/replaysync/pkg/logging"
)

// Separator splits identity from fingerprint on each line
const Separator = " = "

// ErrCorrupt is returned by Load when a line cannot be split into exactly
// one identity and one fingerprint
var ErrCorrupt = errors.New("hash cache is corrupt")

// Cache is the lock-guarded identity -> fingerprint container shared by the
// fingerprint workers of one run
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
}

// New creates an empty cache
func New() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Load reads the cache file at path. A missing file yields an empty cache.
// Any malformed line discards the whole file and returns ErrCorrupt.
func Load(path string) (*Cache, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to open hash cache: %w", err)
	}
	defer file.Close()

	c := New()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		parts := strings.Split(line, Separator)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrCorrupt, lineNo, len(parts))
		}
		c.entries[parts[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hash cache: %w", err)
	}

	return c, nil
}

// LoadOrEmpty loads the cache and falls back to a cold start when the file
// is corrupt. Other read errors are returned.
func LoadOrEmpty(ctx context.Context, path string, logger logging.Logger) (*Cache, error) {
	c, err := Load(path)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrCorrupt) {
		return nil, err
	}

	if logger != nil {
		logger.Warn(ctx, "Discarding corrupt hash cache, starting cold", logging.Fields{
			"path":  path,
			"error": err.Error(),
		})
	}
	return New(), nil
}

// Get returns the fingerprint cached for id
func (c *Cache) Get(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fp, ok := c.entries[id]
	return fp, ok
}

// Put inserts or overwrites the fingerprint for id
func (c *Cache) Put(id, fp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = fp
}

// Len returns the number of entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries returns a copy of the mapping
func (c *Cache) Entries() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Persist writes the whole mapping to path through a temp file and a rename,
// so an interrupted write leaves the previous file in place.
// Entries whose line would not split back into the same identity and
// fingerprint are skipped; the number skipped is returned.
func (c *Cache) Persist(path string) (int, error) {
	entries := c.Entries()

	ids := make([]string, 0, len(entries))
	skipped := 0
	for id, fp := range entries {
		if !roundTrips(id, fp) {
			skipped++
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = id + Separator + entries[id]
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return skipped, fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return skipped, fmt.Errorf("failed to write hash cache: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return skipped, fmt.Errorf("failed to finalize hash cache: %w", err)
	}

	return skipped, nil
}

// roundTrips reports whether Load reads the line for id and fp back as the
// same pair. An identity ending in " =" or starting with "= " fails this
// without containing the separator itself.
func roundTrips(id, fp string) bool {
	line := id + Separator + fp
	if line == "" || strings.ContainsAny(line, "\r\n") {
		return false
	}
	parts := strings.Split(line, Separator)
	return len(parts) == 2 && parts[0] == id && parts[1] == fp
}
