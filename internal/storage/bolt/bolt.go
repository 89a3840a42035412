// Package bolt provides a bbolt-backed implementation of storage.Medium.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"go.etcd.io/bbolt"

	"github.com/mmynk/techdoc/internal/storage"
)

const bucketKV = "kv" // key: managed key -> raw value

var _ storage.Medium = (*Bolt)(nil)

// Bolt implements storage.Medium on a single bbolt bucket.
type Bolt struct {
	db    *bbolt.DB
	quota int64
}

// Option configures a Bolt medium.
type Option func(*Bolt)

// WithQuota limits the estimated bytes the medium accepts. Zero means unlimited.
func WithQuota(bytes int64) Option {
	return func(b *Bolt) { b.quota = bytes }
}

// New opens (or creates) the bbolt database at path.
func New(path string, opts ...Option) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketKV))
		return err
	}); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	b := &Bolt{db: db}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Close closes the database.
func (b *Bolt) Close() error {
	return b.db.Close()
}

func (b *Bolt) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketKV)).Get([]byte(key))
		if v != nil {
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, found, nil
}

func (b *Bolt) Set(_ context.Context, key, value string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketKV))

		if b.quota > 0 {
			var chars int64
			if err := bucket.ForEach(func(k, v []byte) error {
				if string(k) != key {
					chars += int64(utf8.RuneCount(v))
				}
				return nil
			}); err != nil {
				return err
			}
			if chars*storage.CharCost+storage.EstimateBytes(value) > b.quota {
				return fmt.Errorf("%s needs %d bytes: %w", key, storage.EstimateBytes(value), storage.ErrCapacityExceeded)
			}
		}

		if err := bucket.Put([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
		return nil
	})
}

func (b *Bolt) Delete(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketKV))
		for _, key := range keys {
			if err := bucket.Delete([]byte(key)); err != nil {
				return fmt.Errorf("failed to delete %s: %w", key, err)
			}
		}
		return nil
	})
}

func (b *Bolt) Keys(_ context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketKV)).Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}
