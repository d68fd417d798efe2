/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the key does not exist in the store.
var ErrNotFound = errors.New("key not found")

// ErrUnavailable is returned by LazyStore when the underlying store could not be opened.
var ErrUnavailable = errors.New("store is unavailable")

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("store is closed")

// ErrReadOnly is returned when a Bucket passed to View is modified.
var ErrReadOnly = errors.New("bucket is read-only")

// Bucket provides access to the entries inside a single Update or View call.
// Values passed to ForEach and returned by Get are only valid until the call returns.
type Bucket interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	ForEach(fn func(key string, value []byte) error) error
}

// Store is a durable key-value store keyed by arbitrary strings.
type Store interface {
	// Get returns a copy of the value stored by the key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the value by the key, replacing an existing one.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all stored keys.
	Keys(ctx context.Context) ([]string, error)

	// Update runs fn atomically: either all changes made through the Bucket are applied or none.
	Update(ctx context.Context, fn func(b Bucket) error) error

	// View runs fn with a consistent read-only snapshot. Put and Delete fail with ErrReadOnly.
	View(ctx context.Context, fn func(b Bucket) error) error

	// Flush makes all previous writes durable.
	Flush(ctx context.Context) error

	// Close releases the resources held by the store.
	Close() error
}

type readOnlyBucket struct {
	Bucket
}

func (readOnlyBucket) Put(string, []byte) error {
	return ErrReadOnly
}

func (readOnlyBucket) Delete(string) error {
	return ErrReadOnly
}
