/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package ttlcache

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/xch-dev/sage-sub002/profile"
)

// Entry is a persisted cache record.
type Entry struct {
	Value profile.Metadata `msgpack:"value"`

	// StoredAt is the time (epoch milliseconds) when the entry was written.
	StoredAt int64 `msgpack:"storedAt"`
}

// IsValid reports whether the entry is still valid at now for the given TTL.
func (e Entry) IsValid(now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-e.StoredAt < ttl.Milliseconds()
}

func encodeEntry(e Entry) ([]byte, error) {
	data, err := msgpack.Marshal(&e)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (Entry, error) {
	var e Entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	return e, nil
}
