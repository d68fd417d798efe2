/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package store

import (
	"context"
	"sync"
)

// MemoryStore is a non-durable Store. It is used in tests and when persistence is disabled.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored by the key or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores the value by the key.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	return s.Update(ctx, func(b Bucket) error {
		return b.Put(key, value)
	})
}

// Delete removes the key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	return s.Update(ctx, func(b Bucket) error {
		return b.Delete(key)
	})
}

// Keys returns all stored keys.
func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

// Update runs fn under the store lock. Changes are staged and applied only if fn succeeds.
func (s *MemoryStore) Update(ctx context.Context, fn func(b Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	mb := &memoryBucket{base: s.data, staged: make(map[string][]byte)}
	if err := fn(mb); err != nil {
		return err
	}
	for k, v := range mb.staged {
		if v == nil {
			delete(s.data, k)
			continue
		}
		s.data[k] = v
	}
	return nil
}

// View runs fn under the read lock.
func (s *MemoryStore) View(ctx context.Context, fn func(b Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(readOnlyBucket{&memoryBucket{base: s.data}})
}

// Flush is a no-op for MemoryStore.
func (s *MemoryStore) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close marks the store as closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// memoryBucket overlays staged changes on top of the store data. A nil staged value means deletion.
type memoryBucket struct {
	base   map[string][]byte
	staged map[string][]byte
}

func (mb *memoryBucket) Get(key string) ([]byte, bool) {
	if v, ok := mb.staged[key]; ok {
		return v, v != nil
	}
	v, ok := mb.base[key]
	return v, ok
}

func (mb *memoryBucket) Put(key string, value []byte) error {
	v := append([]byte(nil), value...)
	if v == nil {
		v = []byte{}
	}
	mb.staged[key] = v
	return nil
}

func (mb *memoryBucket) Delete(key string) error {
	mb.staged[key] = nil
	return nil
}

func (mb *memoryBucket) ForEach(fn func(key string, value []byte) error) error {
	for k, v := range mb.base {
		if sv, ok := mb.staged[k]; ok {
			if sv == nil {
				continue
			}
			v = sv
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	for k, v := range mb.staged {
		if _, inBase := mb.base[k]; inBase || v == nil {
			continue
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}
