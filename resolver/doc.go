/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

// Package resolver resolves DIDs to profile metadata.
//
// A Service answers from the TTL cache when it can. On a miss it coalesces concurrent lookups
// of the same DID into one directory request, caps the number of DIDs fetched at the same time,
// and passes every directory request through a shared rate limiting gate.
// Lookups never fail: when the directory can't be reached or answers with garbage,
// callers get a deterministic fallback profile that isn't cached.
package resolver
