package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// fileEntry is the metadata written next to each value.
type fileEntry struct {
	Key       string    `json:"key"`
	SavedAt   time.Time `json:"saved_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileStore stores entries on disk as <hash>.meta.json and <hash>.body where
// hash is sha256(key). No eviction happens besides PurgeExpired.
type FileStore struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the directory and 0600 on files.
	StrictPerms bool
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time

	mu sync.Mutex
}

func (c *FileStore) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

func (c *FileStore) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	// If directory already existed and StrictPerms is on, tighten perms
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

func (c *FileStore) fileMode() os.FileMode {
	if c.StrictPerms {
		return 0o600
	}
	return 0o644
}

func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

func (c *FileStore) metaPath(hash string) string { return filepath.Join(c.Dir, hash+".meta.json") }
func (c *FileStore) bodyPath(hash string) string { return filepath.Join(c.Dir, hash+".body") }

// Get returns the cached value when present and not expired.
func (c *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	if err := c.ensureDir(); err != nil {
		return "", false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	hash := hashKey(key)
	b, err := os.ReadFile(c.metaPath(hash))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var e fileEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return "", false, fmt.Errorf("decode meta: %w", err)
	}
	if e.Key != key || !c.now().Before(e.ExpiresAt) {
		return "", false, nil
	}
	body, err := os.ReadFile(c.bodyPath(hash))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(body), true, nil
}

// Put stores value under key for ttl. A non-positive ttl means DefaultTTL.
func (c *FileStore) Put(_ context.Context, key string, value string, ttl time.Duration) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	hash := hashKey(key)
	// Write body first so a reader never sees meta without a body
	if err := c.writeAtomic(c.bodyPath(hash), []byte(value)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	now := c.now()
	meta := fileEntry{Key: key, SavedAt: now, ExpiresAt: expiry(now, ttl)}
	b, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := c.writeAtomic(c.metaPath(hash), b); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

// writeAtomic replaces path through a uniquely named temp file in the same
// directory, so readers in other processes see the old or the new content.
func (c *FileStore) writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(c.Dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Chmod(c.fileMode()); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// PurgeExpired removes entries whose expiry has passed. Unreadable or
// malformed meta files are skipped.
func (c *FileStore) PurgeExpired(_ context.Context) (int, error) {
	if err := c.ensureDir(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	err := filepath.WalkDir(c.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".meta.json") {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var e fileEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil
		}
		if now.Before(e.ExpiresAt) {
			return nil
		}
		removed++
		_ = os.Remove(path)
		_ = os.Remove(strings.TrimSuffix(path, ".meta.json") + ".body")
		return nil
	})
	return removed, err
}

// Close is a no-op.
func (c *FileStore) Close() error { return nil }

// ClearDir removes the directory and all contents. It recreates the directory
// afterwards to leave a valid empty cache location.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
