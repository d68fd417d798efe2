/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

// Package store provides the durable key-value storage used by the profile cache.
//
// BoltStore keeps entries in a single bbolt bucket and survives process restarts.
// MemoryStore is a non-durable implementation with the same semantics.
// LazyStore opens the underlying store on first use and degrades to ErrUnavailable
// when opening fails, so callers can keep working without persistence.
package store
