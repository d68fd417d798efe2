/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package profile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNamer_Name(t *testing.T) {
	const did = "did:chia:1qy7k4uqkq6jyx2zjr5yxj0m6xd7n9s3hcj6lp2vw7rj9tq3d0qsq8d3kmv"

	tests := []struct {
		name  string
		namer Namer
		id    string
		want  string
	}{
		{
			name:  "default namer, long did",
			namer: DefaultNamer,
			id:    did,
			want:  "did:chia:1qy7k4u...3kmv",
		},
		{
			name:  "short id is returned as is",
			namer: DefaultNamer,
			id:    "did:chia:abc",
			want:  "did:chia:abc",
		},
		{
			name:  "id of exactly truncated length is returned as is",
			namer: Namer{PrefixLen: 2, SuffixLen: 2, Separator: "~"},
			id:    "abcde",
			want:  "abcde",
		},
		{
			name:  "custom namer",
			namer: Namer{PrefixLen: 3, SuffixLen: 2, Separator: "~"},
			id:    "abcdefgh",
			want:  "abc~gh",
		},
		{
			name:  "multibyte characters are not split",
			namer: Namer{PrefixLen: 1, SuffixLen: 1, Separator: "."},
			id:    "жёлтый",
			want:  "ж.й",
		},
		{
			name:  "empty id",
			namer: DefaultNamer,
			id:    "",
			want:  UnknownName,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.namer.Name(tt.id))
		})
	}
}

func TestNamer_Deterministic(t *testing.T) {
	const did = "did:chia:1qy7k4uqkq6jyx2zjr5yxj0m6xd7n9s3hcj6lp2vw7rj9tq3d0qsq8d3kmv"
	first := DefaultNamer.Name(did)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, DefaultNamer.Name(did))
	}
	namer, err := NewNamer(DefaultPrefixLen, DefaultSuffixLen, DefaultSeparator)
	require.NoError(t, err)
	require.Equal(t, first, namer.Name(did))
}

func TestNewNamer(t *testing.T) {
	_, err := NewNamer(-1, 2, "...")
	require.EqualError(t, err, "prefix length must be non-negative, got -1")
	_, err = NewNamer(2, -1, "...")
	require.EqualError(t, err, "suffix length must be non-negative, got -1")
	_, err = NewNamer(0, 0, "...")
	require.EqualError(t, err, "prefix and suffix lengths must not both be zero")
}

func TestFallbackAndKnown(t *testing.T) {
	fb := Fallback("did:chia:1qy7k4uqkq6jyx2zjr5yxj0m6xd7n9s3hcj6lp2vw7rj9tq3d0qsq8d3kmv", nil)
	require.True(t, fb.IsUnknown)
	require.Equal(t, "did:chia:1qy7k4u...3kmv", fb.DisplayName)
	require.Nil(t, fb.AvatarURI)

	fb = Fallback("", func(string) string { return "" })
	require.Equal(t, UnknownName, fb.DisplayName)

	known := Known("did:chia:abc", "Alice", "https://example.com/a.png", nil)
	require.False(t, known.IsUnknown)
	require.Equal(t, "Alice", known.DisplayName)
	require.NotNil(t, known.AvatarURI)
	require.Equal(t, "https://example.com/a.png", *known.AvatarURI)

	noName := Known("did:chia:abc", "", "", nil)
	require.False(t, noName.IsUnknown)
	require.Equal(t, "did:chia:abc", noName.DisplayName)
	require.Nil(t, noName.AvatarURI)
}
