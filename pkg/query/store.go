package query

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the store.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a stored entry could not be decoded.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Entry is a stored query result.
type Entry struct {
	// Data is the encoded query value.
	Data []byte `json:"data"`

	// UpdatedAt is when the value was fetched from the backend.
	UpdatedAt time.Time `json:"updated_at"`

	// Expires is when the store may drop the entry (cache time).
	Expires time.Time `json:"expires"`
}

// IsExpired returns true if the entry has outlived its cache time.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Age returns how long ago the value was fetched.
func (e *Entry) Age() time.Duration {
	return time.Since(e.UpdatedAt)
}

// Store keeps query entries by key.
type Store interface {
	// Get returns ErrCacheMiss for unknown or expired keys.
	Get(ctx context.Context, key Key) (*Entry, error)
	Set(ctx context.Context, key Key, entry *Entry) error
	Delete(ctx context.Context, key Key) error
	// DeletePrefix removes every entry whose key starts with prefix and
	// returns how many were removed.
	DeletePrefix(ctx context.Context, prefix Key) (int, error)
}
