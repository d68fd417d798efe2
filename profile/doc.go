/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

// Package profile provides the profile metadata resolved for an identifier (DID)
// and the deterministic naming used when no real metadata is available.
package profile
