/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

// Package ttlcache provides an expiry-aware profile cache on top of a durable store.Store.
//
// Entries are stored with the time they were written and are valid while their age is less than the cache TTL.
// Stale entries are never returned by Get. They stay in the store until SweepExpired (or ClearAll) removes them.
// Store failures never reach callers: reads degrade to misses and writes are logged and dropped.
package ttlcache
