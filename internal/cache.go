package internal

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/boltdb/bolt"

	tt "github.com/gnoverse/tverify/internal/types"
)

const cacheFileName = "verify_cache.db"

// CacheEntry is what the cache stores for one theorem.
type CacheEntry struct {
	Fingerprint string
	Result      tt.Result
	CreatedAt   time.Time
}

// Cache keeps verification results across runs. Entries are grouped in one
// bucket per database and keyed by theorem label; an entry is only valid
// while its fingerprint matches.
type Cache struct {
	CacheDir string
	db       *bolt.DB
	mutex    sync.RWMutex
	maxAge   time.Duration
}

func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(cacheDir, cacheFileName), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}

	return &Cache{CacheDir: cacheDir, db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Set(database, label, fingerprint string, result tt.Result) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry := CacheEntry{
		Fingerprint: fingerprint,
		Result:      result,
		CreatedAt:   time.Now(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(database))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(label), buf.Bytes())
	})
}

func (c *Cache) Get(database, label, fingerprint string) (tt.Result, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var entry CacheEntry
	found := false
	err := c.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(database))
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(label))
		if data == nil {
			return nil
		}
		found = true
		return gob.NewDecoder(bytes.NewReader(data)).Decode(&entry)
	})
	if err != nil || !found || c.isEntryInvalid(entry, fingerprint) {
		return tt.Result{}, false
	}

	result := entry.Result
	result.Cached = true
	return result, true
}

func (c *Cache) isEntryInvalid(entry CacheEntry, fingerprint string) bool {
	// too old
	if c.maxAge > 0 && time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}
	return entry.Fingerprint != fingerprint
}

func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

// InvalidateAll drops every stored result.
func (c *Cache) InvalidateAll() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.db.Update(func(tx *bolt.Tx) error {
		var names [][]byte
		err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, append([]byte(nil), name...))
			return nil
		})
		if err != nil {
			return err
		}
		for _, name := range names {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}
