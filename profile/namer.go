/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package profile

import "fmt"

// UnknownName is used when an identifier is empty and no name can be derived from it.
const UnknownName = "Unknown"

// Default truncation parameters. They keep "did:chia:" plus a few characters of the hash
// visible at the start and the last characters at the end.
const (
	DefaultPrefixLen = 16
	DefaultSuffixLen = 4
	DefaultSeparator = "..."
)

// DefaultNamer is the Namer used when no other is configured.
var DefaultNamer = Namer{PrefixLen: DefaultPrefixLen, SuffixLen: DefaultSuffixLen, Separator: DefaultSeparator}

// Namer derives a display name by keeping a fixed-width prefix and suffix of the identifier.
type Namer struct {
	PrefixLen int
	SuffixLen int
	Separator string
}

// NewNamer creates a new Namer and validates its parameters.
func NewNamer(prefixLen, suffixLen int, separator string) (Namer, error) {
	if prefixLen < 0 {
		return Namer{}, fmt.Errorf("prefix length must be non-negative, got %d", prefixLen)
	}
	if suffixLen < 0 {
		return Namer{}, fmt.Errorf("suffix length must be non-negative, got %d", suffixLen)
	}
	if prefixLen+suffixLen == 0 {
		return Namer{}, fmt.Errorf("prefix and suffix lengths must not both be zero")
	}
	return Namer{PrefixLen: prefixLen, SuffixLen: suffixLen, Separator: separator}, nil
}

// Name returns the truncated form of id.
// Identifiers that are not longer than the truncated form are returned unchanged.
func (n Namer) Name(id string) string {
	if id == "" {
		return UnknownName
	}
	runes := []rune(id)
	if len(runes) <= n.PrefixLen+n.SuffixLen+len([]rune(n.Separator)) {
		return id
	}
	return string(runes[:n.PrefixLen]) + n.Separator + string(runes[len(runes)-n.SuffixLen:])
}
