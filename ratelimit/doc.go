/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

// Package ratelimit provides a shared gate that spaces outbound directory requests.
// All callers pass through one gate regardless of the key they fetch,
// and each turn is granted no earlier than the configured delay after the previous one.
package ratelimit
