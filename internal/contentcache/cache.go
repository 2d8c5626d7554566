package contentcache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"mixwheel/internal/fileutil"
	"mixwheel/internal/logging"
)

// Store is the cache surface the resolver depends on. Implementations
// must treat every failure as a miss; the cache is never a correctness
// dependency.
type Store interface {
	// Lookup copies a fresh cached entry into destDir and returns the
	// copied path. A stale entry is evicted and reported as a miss.
	Lookup(itemID, destDir string) (string, bool)
	// Store copies sourceFile into the cache, best effort.
	Store(itemID, sourceFile string)
	// SweepExpired removes every entry older than the expiry window and
	// returns the number removed. Intended to run once at process start.
	SweepExpired() int
}

// Stats describes current cache usage for CLI display.
type Stats struct {
	Entries    int
	TotalBytes int64
	Dir        string
}

// blobExt is the on-disk extension for cached audio blobs.
const blobExt = ".mp3"

// DiskCache is the production Store: one blob per item ID in a single
// directory, aged by file modification time.
type DiskCache struct {
	dir    string
	expiry time.Duration
	logger *slog.Logger
	lock   *flock.Flock
}

// ErrCacheBusy indicates another process holds the cache writer lock.
var ErrCacheBusy = errors.New("content cache is locked by another process")

// NewDiskCache prepares the cache directory and acquires the
// single-writer lock. The cache directory is not safe for uncoordinated
// concurrent writers, so construction fails with ErrCacheBusy when the
// lock is already held.
func NewDiskCache(dir string, expiry time.Duration, logger *slog.Logger) (*DiskCache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("content cache directory required")
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("content cache expiry must be positive, got %s", expiry)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !locked {
		return nil, ErrCacheBusy
	}

	return &DiskCache{
		dir:    dir,
		expiry: expiry,
		logger: logging.NewComponentLogger(logger, "contentcache"),
		lock:   lock,
	}, nil
}

// Close releases the writer lock.
func (c *DiskCache) Close() error {
	if c == nil || c.lock == nil {
		return nil
	}
	return c.lock.Unlock()
}

// Lookup implements Store.
func (c *DiskCache) Lookup(itemID, destDir string) (string, bool) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return "", false
	}

	cached := c.blobPath(itemID)
	info, err := os.Stat(cached)
	if err != nil {
		return "", false
	}

	if time.Since(info.ModTime()) >= c.expiry {
		// Expired entries never mutate; delete and treat as absent.
		if err := os.Remove(cached); err != nil {
			c.logger.Debug("failed to evict stale cache entry",
				logging.String("item_id", itemID),
				logging.Error(err))
		}
		return "", false
	}

	dest := filepath.Join(destDir, filepath.Base(cached))
	if err := fileutil.CopyFile(cached, dest); err != nil {
		c.logger.Debug("cache hit copy failed, treating as miss",
			logging.String("item_id", itemID),
			logging.Error(err))
		return "", false
	}

	c.logger.Debug("cache hit", logging.String("item_id", itemID))
	return dest, true
}

// Store implements Store. Failure to write is swallowed: the cache must
// never fail a run.
func (c *DiskCache) Store(itemID, sourceFile string) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return
	}
	if err := fileutil.CopyFile(sourceFile, c.blobPath(itemID)); err != nil {
		c.logger.Debug("cache write failed",
			logging.String("item_id", itemID),
			logging.Error(err))
		return
	}
	c.logger.Debug("cached item", logging.String("item_id", itemID))
}

// SweepExpired implements Store.
func (c *DiskCache) SweepExpired() int {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+blobExt))
	if err != nil {
		return 0
	}

	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) <= c.expiry {
			continue
		}
		if err := os.Remove(path); err != nil {
			continue
		}
		removed++
	}

	if removed > 0 {
		c.logger.Info("swept expired cache entries", logging.Int("removed", removed))
	}
	return removed
}

// Stats reports entry count and total size for CLI display.
func (c *DiskCache) Stats() Stats {
	stats := Stats{Dir: c.dir}
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+blobExt))
	if err != nil {
		return stats
	}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
	}
	return stats
}

// Clear removes every entry regardless of age and returns the count.
func (c *DiskCache) Clear() int {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+blobExt))
	if err != nil {
		return 0
	}
	removed := 0
	for _, path := range matches {
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed
}

func (c *DiskCache) blobPath(itemID string) string {
	// Item IDs come from remote metadata; Base guards against path
	// separators sneaking into the key.
	return filepath.Join(c.dir, filepath.Base(itemID)+blobExt)
}

// Nop is the Store used when caching is disabled: every lookup misses
// and stores are dropped.
type Nop struct{}

func (Nop) Lookup(string, string) (string, bool) { return "", false }
func (Nop) Store(string, string)                 {}
func (Nop) SweepExpired() int                    { return 0 }
