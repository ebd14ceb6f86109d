// Package cache provides the key/value caches used for remap results.
//
// Three backends implement [Cache]: [NullCache] (caching disabled),
// [FileCache] (CLI, one JSON file per entry under the user cache directory)
// and [RedisCache] (shared cache for the API server). Keys are built by a
// [Keyer] so every backend sees the same key space.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs.
const (
	// TTLRemap bounds how long a remap result is reused. Results are pure
	// functions of their key, so this only limits disk and memory use.
	TTLRemap = 7 * 24 * time.Hour

	// TTLDocument bounds how long a parsed document is kept.
	TTLDocument = 24 * time.Hour
)

// GetJSON reads key and decodes it into v. Entries that no longer decode are
// treated as misses.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
