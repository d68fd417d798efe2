/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/acronis/go-appkit/log"
)

// State is a state of LazyStore initialization.
type State int

// LazyStore states.
const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Opener opens the underlying store.
type Opener func(ctx context.Context) (Store, error)

// LazyStore opens the underlying store on first use.
// Concurrent first users share one opening attempt.
// If opening fails, the store stays in StateFailed and every operation returns ErrUnavailable.
type LazyStore struct {
	open   Opener
	logger log.FieldLogger

	mu      sync.Mutex
	state   State
	done    chan struct{}
	store   Store
	openErr error
}

var _ Store = (*LazyStore)(nil)

// NewLazyStore creates a new LazyStore. Logger may be nil.
func NewLazyStore(open Opener, logger log.FieldLogger) *LazyStore {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &LazyStore{open: open, logger: logger}
}

// State returns the current initialization state.
func (l *LazyStore) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *LazyStore) acquire(ctx context.Context) (Store, error) {
	l.mu.Lock()
	switch l.state {
	case StateReady:
		s := l.store
		l.mu.Unlock()
		return s, nil
	case StateFailed:
		err := l.openErr
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case StateInitializing:
		done := l.done
		l.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return l.acquire(ctx)
	}

	l.state = StateInitializing
	done := make(chan struct{})
	l.done = done
	l.mu.Unlock()

	// Opening is shared by all waiters, so it must not be aborted by the first caller's cancellation.
	s, err := l.open(context.WithoutCancel(ctx))

	l.mu.Lock()
	if err != nil {
		l.state = StateFailed
		l.openErr = err
		l.logger.Error("failed to open profile store, continuing without persistence", log.Error(err))
	} else {
		l.state = StateReady
		l.store = s
	}
	close(done)
	l.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s, nil
}

// Get returns a copy of the value stored by the key.
func (l *LazyStore) Get(ctx context.Context, key string) ([]byte, error) {
	s, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, key)
}

// Set stores the value by the key.
func (l *LazyStore) Set(ctx context.Context, key string, value []byte) error {
	s, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, value)
}

// Delete removes the key.
func (l *LazyStore) Delete(ctx context.Context, key string) error {
	s, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	return s.Delete(ctx, key)
}

// Keys returns all stored keys.
func (l *LazyStore) Keys(ctx context.Context) ([]string, error) {
	s, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return s.Keys(ctx)
}

// Update runs fn atomically in the underlying store.
func (l *LazyStore) Update(ctx context.Context, fn func(b Bucket) error) error {
	s, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	return s.Update(ctx, fn)
}

// View runs fn with a read-only snapshot of the underlying store.
func (l *LazyStore) View(ctx context.Context, fn func(b Bucket) error) error {
	s, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	return s.View(ctx, fn)
}

// Flush flushes the underlying store.
func (l *LazyStore) Flush(ctx context.Context) error {
	s, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	return s.Flush(ctx)
}

// Close closes the underlying store if it was opened and resets LazyStore to StateUninitialized,
// so the next operation opens the store again.
// Close must not be called concurrently with the first operation.
func (l *LazyStore) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateReady {
		l.state = StateUninitialized
		l.openErr = nil
		return nil
	}
	err := l.store.Close()
	l.store = nil
	l.state = StateUninitialized
	return err
}
