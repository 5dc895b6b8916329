// Package cache provides a self-cleaning, on-disk memoization layer for
// byte-range digests computed by internal/hasher, keyed by (path, size,
// mtime, range) so a changed or replaced file never returns a stale hash.
//
// The BoltDB open/read-old/write-new/atomic-rename shape is carried
// unchanged from dupedog's original cache package; only the key schema
// changed, since sortomatic has no hardlink-sibling notion (dupedog keyed
// on dev+ino to hash one representative per hardlink group) and instead
// keys on the path the catalog already tracks.
package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketName = "hashes"

// Cache memoizes hex-encoded digests for byte ranges of a file.
// Implements self-cleaning: each run creates a new database, only entries
// looked up or stored during the run survive into the next.
type Cache struct {
	readDB  *bolt.DB // Existing cache (read-only)
	writeDB *bolt.DB // New cache (write) - BoltDB locks this file
	path    string   // Final path (for atomic swap)
	enabled bool
}

// Open opens the existing cache for reading and creates a new cache for
// writing. Returns a disabled cache if path is empty.
func Open(path string) (*Cache, error) {
	if path == "" {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	c := &Cache{path: path, enabled: true}
	var err error

	if _, statErr := os.Stat(path); statErr == nil {
		c.readDB, err = bolt.Open(path, 0o600, &bolt.Options{
			ReadOnly: true,
			Timeout:  1 * time.Second,
		})
		if err != nil {
			c.readDB = nil
		}
	}

	newPath := path + ".new"
	c.writeDB, err = bolt.Open(newPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create new cache (locked by another instance?): %w", err)
	}

	if err := c.writeDB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// Close closes both databases and atomically replaces old with new. Only
// replaces if the write database closed successfully, to avoid data loss.
func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		if err := c.readDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.writeDB != nil {
		if err := c.writeDB.Close(); err != nil {
			errs = append(errs, err)
		} else if err := os.Rename(c.path+".new", c.path); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

const keyVersion byte = 1 // Increment when key format changes

// makeKey builds a deterministic byte key.
// Key = ver(1) + path + NUL + size(8) + mtime(8) + start(8) + rangeSize(8)
func makeKey(path string, size, start, rangeSize int64, mtime time.Time) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(keyVersion)
	buf.WriteString(path)
	buf.WriteByte(0)
	_ = binary.Write(buf, binary.BigEndian, size)
	_ = binary.Write(buf, binary.BigEndian, mtime.UnixNano())
	_ = binary.Write(buf, binary.BigEndian, start)
	_ = binary.Write(buf, binary.BigEndian, rangeSize)
	return buf.Bytes()
}

// Lookup retrieves a cached digest for a byte range. Returns ("", false,
// nil) on a miss. On hit, copies the entry into the new (write) database so
// it survives self-cleaning.
func (c *Cache) Lookup(path string, size, start, rangeSize int64, mtime time.Time) (string, bool, error) {
	if !c.enabled || c.readDB == nil {
		return "", false, nil
	}

	key := makeKey(path, size, start, rangeSize, mtime)
	var digest string

	err := c.readDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		if data := b.Get(key); data != nil {
			digest = string(data)
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}
	if digest == "" {
		return "", false, nil
	}

	_ = c.Store(path, size, start, rangeSize, mtime, digest)
	return digest, true, nil
}

// Store saves a digest for a byte range to the new database.
func (c *Cache) Store(path string, size, start, rangeSize int64, mtime time.Time, digest string) error {
	if !c.enabled || c.writeDB == nil || digest == "" {
		return nil
	}

	key := makeKey(path, size, start, rangeSize, mtime)
	err := c.writeDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		return b.Put(key, []byte(digest))
	})
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}
