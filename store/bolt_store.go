/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Default parameter values for BoltStore.
const (
	DefaultBoltBucket      = "profiles"
	DefaultBoltOpenTimeout = time.Second
)

// BoltStoreOpts represents options for BoltStore.
type BoltStoreOpts struct {
	// Bucket is a name of the bbolt bucket where entries are kept.
	// By default, DefaultBoltBucket is used.
	Bucket string

	// OpenTimeout is the maximum time to wait for the file lock held by another process.
	// By default, DefaultBoltOpenTimeout is used.
	OpenTimeout time.Duration
}

// BoltStore is a Store backed by a bbolt database file.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens (creating if needed) a bbolt database at the provided path.
func OpenBoltStore(path string) (*BoltStore, error) {
	return OpenBoltStoreWithOpts(path, BoltStoreOpts{})
}

// OpenBoltStoreWithOpts opens (creating if needed) a bbolt database at the provided path with options.
func OpenBoltStoreWithOpts(path string, opts BoltStoreOpts) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("path must not be empty")
	}
	if opts.Bucket == "" {
		opts.Bucket = DefaultBoltBucket
	}
	if opts.OpenTimeout == 0 {
		opts.OpenTimeout = DefaultBoltOpenTimeout
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", path, err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: opts.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt database %s: %w", path, err)
	}
	bucket := []byte(opts.Bucket)
	if err = db.Update(func(tx *bolt.Tx) error {
		_, txErr := tx.CreateBucketIfNotExists(bucket)
		return txErr
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %q: %w", opts.Bucket, err)
	}
	return &BoltStore{db: db, bucket: bucket}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.db.Path()
}

// Get returns a copy of the value stored by the key or ErrNotFound.
func (s *BoltStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, mapBoltErr(err)
	}
	return value, nil
}

// Set stores the value by the key, replacing an existing one.
func (s *BoltStore) Set(ctx context.Context, key string, value []byte) error {
	return s.Update(ctx, func(b Bucket) error {
		return b.Put(key, value)
	})
}

// Delete removes the key.
func (s *BoltStore) Delete(ctx context.Context, key string) error {
	return s.Update(ctx, func(b Bucket) error {
		return b.Delete(key)
	})
}

// Keys returns all stored keys.
func (s *BoltStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, mapBoltErr(err)
	}
	return keys, nil
}

// Update runs fn inside a single read-write bbolt transaction.
func (s *BoltStore) Update(ctx context.Context, fn func(b Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapBoltErr(s.db.Update(func(tx *bolt.Tx) error {
		return fn(boltBucket{tx.Bucket(s.bucket)})
	}))
}

// View runs fn inside a read-only bbolt transaction, so it doesn't block writers.
func (s *BoltStore) View(ctx context.Context, fn func(b Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapBoltErr(s.db.View(func(tx *bolt.Tx) error {
		return fn(readOnlyBucket{boltBucket{tx.Bucket(s.bucket)}})
	}))
}

// Flush forces the database file to be synced to disk.
// Committed transactions are already synced by bbolt unless NoSync is set, so this is mostly a no-op.
func (s *BoltStore) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapBoltErr(s.db.Sync())
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

type boltBucket struct {
	b *bolt.Bucket
}

func (bb boltBucket) Get(key string) ([]byte, bool) {
	v := bb.b.Get([]byte(key))
	return v, v != nil
}

func (bb boltBucket) Put(key string, value []byte) error {
	return bb.b.Put([]byte(key), value)
}

func (bb boltBucket) Delete(key string) error {
	return bb.b.Delete([]byte(key))
}

func (bb boltBucket) ForEach(fn func(key string, value []byte) error) error {
	return bb.b.ForEach(func(k, v []byte) error {
		return fn(string(k), v)
	})
}

func mapBoltErr(err error) error {
	if err == bolt.ErrDatabaseNotOpen {
		return ErrClosed
	}
	return err
}
