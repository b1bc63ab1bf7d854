// Package cache is a content-addressed disk cache for search responses.
// Entries are JSON files named by key hash; validity is judged from file
// modification time. Cache failures are never fatal: every I/O or codec
// error logs a warning and reads as a miss.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// TemporalSegment is the key segment label for merged temporal-search results.
const TemporalSegment = "temporal"

// Cache stores JSON-serializable values under hashed keys in a directory.
type Cache struct {
	dir string
	ttl time.Duration
}

// New creates the cache directory if needed and returns a Cache whose
// entries are considered warm for ttl after their last write.
func New(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "cache: create dir")
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Key derives the cache key for a keyword search scoped to a segment label
// (a year, or TemporalSegment for the merged comprehensive result). Distinct
// inputs must never collide, hence a full-width hash.
func (c *Cache) Key(keyword, segment string) string {
	sum := sha256.Sum256([]byte(keyword + "_" + segment))
	return hex.EncodeToString(sum[:])
}

// Valid reports whether the entry exists and its last write is within the
// TTL window. Stale entries are left on disk; they are cold, not deleted.
func (c *Cache) Valid(key string) bool {
	info, err := os.Stat(c.path(key))
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < c.ttl
}

// Save writes v under key. Failures log a warning and are otherwise ignored;
// a broken cache must never fail the request that tried to fill it.
func (c *Cache) Save(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Warn("cache save failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		zap.L().Warn("cache save failed", zap.String("key", key), zap.Error(err))
	}
}

// Load reads the entry for key into v, reporting whether it succeeded.
// Any failure logs a warning and reads as a miss.
func (c *Cache) Load(key string, v any) bool {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("cache load failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		zap.L().Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// EntryInfo describes one cache file for inspection commands.
type EntryInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
	Warm    bool
}

// Entries lists the cache contents, newest first not guaranteed.
func (c *Cache) Entries() ([]EntryInfo, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return nil, eris.Wrap(err, "cache: list entries")
	}

	out := make([]EntryInfo, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		key := filepath.Base(m)
		key = key[:len(key)-len(".json")]
		out = append(out, EntryInfo{
			Key:     key,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Warm:    time.Since(info.ModTime()) < c.ttl,
		})
	}
	return out, nil
}

// Clear removes every cache file and returns how many were deleted. This is
// the only deletion path; expiry alone never removes entries.
func (c *Cache) Clear() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return 0, eris.Wrap(err, "cache: clear")
	}

	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			zap.L().Warn("cache clear: remove failed", zap.String("file", m), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
