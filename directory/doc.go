/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

// Package directory provides an HTTP client for the remote identity directory service
// that maps DIDs to profile records.
package directory
