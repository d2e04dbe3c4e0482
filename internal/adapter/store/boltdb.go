package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketFiles = []byte("files")
	bucketMeta  = []byte("meta")
)

// FileCache persists fetched source files between runs.
type FileCache struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

type fileEntry struct {
	Lines     []string `json:"lines"`
	FetchedAt int64    `json:"fetched_at"`
}

func NewFileCache(path string, ttl time.Duration) (*FileCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketFiles, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &FileCache{db: db, ttl: ttl, now: time.Now}, nil
}

func fileKey(repo, path string) []byte {
	return []byte(repo + "\x00" + path)
}

// Get returns the cached lines of path, or false when absent or stale.
func (c *FileCache) Get(repo, path string) ([]string, bool, error) {
	var entry fileEntry
	found := false
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get(fileKey(repo, path))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return fmt.Errorf("decode cached %s: %w", path, err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, false, err
	}
	if c.ttl > 0 && c.now().Sub(time.Unix(entry.FetchedAt, 0)) > c.ttl {
		return nil, false, nil
	}
	return entry.Lines, true, nil
}

func (c *FileCache) Put(repo, path string, lines []string) error {
	data, err := json.Marshal(fileEntry{Lines: lines, FetchedAt: c.now().Unix()})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Put(fileKey(repo, path), data)
	})
}

func (c *FileCache) Delete(repo, path string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Delete(fileKey(repo, path))
	})
}

// Count returns the number of cached files.
func (c *FileCache) Count() (int, error) {
	n := 0
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketFiles).Stats().KeyN
		return nil
	})
	return n, err
}

func (c *FileCache) Close() error {
	return c.db.Close()
}
