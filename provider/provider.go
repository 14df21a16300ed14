// Package provider defines the storage abstraction used by cacheable.
//
// Backend is the narrow get/set surface the cache-aside wrapper needs.
// Store is the full capability set of a key-value store adapter; every
// method is a single round trip to the backing store.
//
// Values cross the boundary as Go values: implementations serialize on Set
// and deserialize into dst on Get using their configured codec.
// A Get on a missing key, or on a key holding the codec's null encoding,
// reports found=false with a nil error.
package provider

import (
	"context"
	"time"
)

// Sentinels returned by Store.TTL.
const (
	// TTLNoExpiry means the key exists without an expiry.
	TTLNoExpiry time.Duration = -1
	// TTLMissing means the key does not exist.
	TTLMissing time.Duration = -2
)

// Backend must be safe for concurrent use.
type Backend interface {
	// Get decodes the value stored under key into dst (a non-nil pointer).
	// Returns (true, nil) on hit; (false, nil) on miss.
	Get(ctx context.Context, key string, dst any) (found bool, err error)

	// Set encodes value and stores it. ttl > 0 stores with expiry;
	// ttl <= 0 stores without expiry where the backend supports it.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Store is the full adapter surface.
type Store interface {
	Backend

	// Del removes key and returns the number of removed keys (0 or 1).
	Del(ctx context.Context, key string) (int64, error)
	HasKey(ctx context.Context, key string) (bool, error)
	FlushAll(ctx context.Context) error
	// Keys returns keys matching a glob pattern, sorted ascending.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// TTL returns the remaining lifetime, TTLNoExpiry or TTLMissing.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Expire sets a TTL on key; false if the key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	Increment(ctx context.Context, key string) (int64, error)
	IncrementBy(ctx context.Context, key string, amount int64) (int64, error)
	Decrement(ctx context.Context, key string) (int64, error)
	DecrementBy(ctx context.Context, key string, amount int64) (int64, error)

	// Close releases resources.
	Close(ctx context.Context) error
}
