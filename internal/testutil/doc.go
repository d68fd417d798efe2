/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

// Package testutil contains test helpers shared by packages of the module.
package testutil
