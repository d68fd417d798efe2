/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package ttlcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acronis/go-appkit/log"
	"github.com/jonboulle/clockwork"
	"go.uber.org/atomic"

	"github.com/xch-dev/sage-sub002/profile"
	"github.com/xch-dev/sage-sub002/store"
)

// DefaultTTL is the default time an entry remains valid after it was stored.
const DefaultTTL = 24 * time.Hour

// Options represents options for the cache.
type Options struct {
	// TTL is the time an entry remains valid after it was stored. By default, DefaultTTL is used.
	TTL time.Duration

	// Clock is used to timestamp and validate entries. By default, the real clock is used.
	Clock clockwork.Clock

	// Logger is used for logging store failures. By default, logging is disabled.
	Logger log.FieldLogger

	// MetricsCollector is used to collect statistics about cache usage. It can be nil.
	MetricsCollector MetricsCollector
}

// Cache is an expiry-aware profile cache persisted in a store.Store.
type Cache struct {
	store            store.Store
	ttl              *atomic.Duration
	clock            clockwork.Clock
	logger           log.FieldLogger
	metricsCollector MetricsCollector
}

// New creates a new Cache over the provided store with default options.
func New(s store.Store) (*Cache, error) {
	return NewWithOpts(s, Options{})
}

// NewWithOpts creates a new Cache over the provided store with options.
func NewWithOpts(s store.Store, opts Options) (*Cache, error) {
	if s == nil {
		return nil, fmt.Errorf("store must not be nil")
	}
	if opts.TTL < 0 {
		return nil, fmt.Errorf("TTL must be greater or equal to 0")
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetrics{}
	}
	return &Cache{
		store:            s,
		ttl:              atomic.NewDuration(opts.TTL),
		clock:            opts.Clock,
		logger:           opts.Logger,
		metricsCollector: opts.MetricsCollector,
	}, nil
}

// TTL returns the current entry TTL.
func (c *Cache) TTL() time.Duration {
	return c.ttl.Load()
}

// SetTTL changes the entry TTL. It applies to all subsequent reads and sweeps, including entries stored earlier.
func (c *Cache) SetTTL(ttl time.Duration) {
	c.ttl.Store(ttl)
}

// Get returns a valid cached value by the key.
// Missing, stale, and unreadable entries are reported as absent.
func (c *Cache) Get(ctx context.Context, key string) (profile.Metadata, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.storeFailed("get", key, err)
		}
		c.metricsCollector.IncMisses()
		return profile.Metadata{}, false
	}
	entry, err := decodeEntry(data)
	if err != nil {
		c.logger.Warn("skipping unreadable profile cache entry", log.String("key", key), log.Error(err))
		c.metricsCollector.IncMisses()
		return profile.Metadata{}, false
	}
	if !entry.IsValid(c.clock.Now(), c.TTL()) {
		c.metricsCollector.IncMisses()
		return profile.Metadata{}, false
	}
	c.metricsCollector.IncHits()
	return entry.Value, true
}

// Set stores the value with a fresh timestamp and flushes the store.
// Failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, value profile.Metadata) {
	c.SetMany(ctx, map[string]profile.Metadata{key: value})
}

// SetMany stores all values with the same fresh timestamp in a single store update and flushes the store.
// Failures are logged and swallowed, in which case no value is written.
func (c *Cache) SetMany(ctx context.Context, values map[string]profile.Metadata) {
	if len(values) == 0 {
		return
	}
	storedAt := c.clock.Now().UnixMilli()
	encoded := make(map[string][]byte, len(values))
	for key, value := range values {
		data, err := encodeEntry(Entry{Value: value, StoredAt: storedAt})
		if err != nil {
			c.logger.Warn("failed to encode profile cache entry", log.String("key", key), log.Error(err))
			continue
		}
		encoded[key] = data
	}
	err := c.store.Update(ctx, func(b store.Bucket) error {
		for key, data := range encoded {
			if err := b.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.storeFailed("set", firstKey(encoded), err)
		return
	}
	if err = c.store.Flush(ctx); err != nil {
		c.storeFailed("flush", firstKey(encoded), err)
		return
	}
	c.metricsCollector.AddWrites(len(encoded))
}

// SweepExpired removes all stale and unreadable entries from the store and returns the number of removed entries.
// Enumeration and deletion happen in one store update, so an entry rewritten concurrently is never dropped.
func (c *Cache) SweepExpired(ctx context.Context) int {
	now := c.clock.Now()
	ttl := c.TTL()
	var removed int
	err := c.store.Update(ctx, func(b store.Bucket) error {
		var expired []string
		if err := b.ForEach(func(key string, value []byte) error {
			entry, decodeErr := decodeEntry(value)
			if decodeErr != nil || !entry.IsValid(now, ttl) {
				expired = append(expired, key)
			}
			return nil
		}); err != nil {
			return err
		}
		for _, key := range expired {
			if err := b.Delete(key); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	if err != nil {
		c.storeFailed("sweep", "", err)
		return 0
	}
	if err = c.store.Flush(ctx); err != nil {
		c.storeFailed("flush", "", err)
	}
	c.metricsCollector.AddSwept(removed)
	if removed > 0 {
		c.logger.Info("expired profile cache entries removed", log.Int("removed", removed))
	}
	return removed
}

// ClearAll removes every entry regardless of validity.
func (c *Cache) ClearAll(ctx context.Context) {
	var removed int
	err := c.store.Update(ctx, func(b store.Bucket) error {
		var keys []string
		if err := b.ForEach(func(key string, _ []byte) error {
			keys = append(keys, key)
			return nil
		}); err != nil {
			return err
		}
		for _, key := range keys {
			if err := b.Delete(key); err != nil {
				return err
			}
		}
		removed = len(keys)
		return nil
	})
	if err != nil {
		c.storeFailed("clear", "", err)
		return
	}
	if err = c.store.Flush(ctx); err != nil {
		c.storeFailed("flush", "", err)
	}
	c.logger.Info("profile cache cleared", log.Int("removed", removed))
}

// Entries returns all decodable entries including stale ones. It's intended for inspection tools.
func (c *Cache) Entries(ctx context.Context) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	err := c.store.View(ctx, func(b store.Bucket) error {
		return b.ForEach(func(key string, value []byte) error {
			if entry, decodeErr := decodeEntry(value); decodeErr == nil {
				entries[key] = entry
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read profile cache entries: %w", err)
	}
	return entries, nil
}

func (c *Cache) storeFailed(op, key string, err error) {
	c.metricsCollector.IncStoreErrors(op)
	if errors.Is(err, store.ErrUnavailable) {
		// Already reported once when the store failed to open.
		c.logger.Debug("profile store is unavailable", log.String("op", op), log.String("key", key))
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.logger.Debug("profile store operation aborted", log.String("op", op), log.String("key", key), log.Error(err))
		return
	}
	c.logger.Warn("profile store operation failed", log.String("op", op), log.String("key", key), log.Error(err))
}

func firstKey(m map[string][]byte) string {
	for k := range m {
		return k
	}
	return ""
}
