// Package cache memoizes string values with a time-to-live. Two backends are
// provided: a directory of small files and a single SQLite database.
package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// DefaultTTL keeps lookups for one week.
const DefaultTTL = 7 * 24 * time.Hour

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is a key/value cache with per-entry expiry. Expired entries read as
// misses. Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key string, value string, ttl time.Duration) error
	// PurgeExpired deletes expired entries and reports how many were removed.
	PurgeExpired(ctx context.Context) (int, error)
	Close() error
}

// DefaultDir returns the per-user cache directory for b30.
func DefaultDir() string {
	return filepath.Join(xdg.CacheHome, "b30")
}

// Open returns the Store for backend rooted at dir.
func Open(backend string, dir string) (Store, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	switch backend {
	case "", BackendFile:
		return &FileStore{Dir: dir}, nil
	case BackendSQLite:
		return OpenSQLite(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend: %q", backend)
	}
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return now.Add(ttl)
}
