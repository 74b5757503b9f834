// Package store provides a key-value storage abstraction with in-memory and
// Redis backends.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a key is not found in the store.
var ErrNotFound = errors.New("key not found")

// Store defines the interface for key-value storage operations.
type Store interface {
	// Set stores a key-value pair with an optional TTL. A zero TTL means
	// the key never expires.
	Set(key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by its key. Returns ErrNotFound if missing.
	Get(key string) ([]byte, error)

	// Del removes one or more keys.
	Del(keys ...string) error

	// Exists checks if a key exists.
	Exists(key string) (bool, error)

	// SetNX sets a key only if it does not already exist.
	SetNX(key string, value []byte, ttl time.Duration) (bool, error)

	// SAdd adds members to a set.
	SAdd(key string, members ...any) error

	// SPopN removes and returns up to n random members from a set.
	SPopN(key string, n int64) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
