package query

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Status is the state of an observed query.
type Status string

const (
	// StatusIdle means the query is disabled and nothing was fetched.
	StatusIdle Status = "idle"

	// StatusSuccess means Data holds the value of the observed key.
	StatusSuccess Status = "success"

	// StatusError means the last fetch failed.
	StatusError Status = "error"
)

// Result is what an Observer reports for one observation.
type Result[T any] struct {
	Data   T
	Err    error
	Status Status

	// IsPlaceholderData is set when Data belongs to a previously observed
	// key and is shown only because the query keeps previous data.
	IsPlaceholderData bool

	// UpdatedAt is when Data was fetched. Zero when there is no data.
	UpdatedAt time.Time
}

// HasData reports whether Data carries a value.
func (r Result[T]) HasData() bool {
	return !r.UpdatedAt.IsZero()
}

// Observer follows a query for one consumer whose key changes over time,
// for example a search field driving FindTrips. It remembers the last
// successful value so queries that keep previous data can show it while
// the current key is disabled or failing.
type Observer[T any] struct {
	client *Client

	mu        sync.Mutex
	last      T
	lastKey   Key
	updatedAt time.Time
}

// NewObserver creates an observer bound to c.
func NewObserver[T any](c *Client) *Observer[T] {
	return &Observer[T]{client: c}
}

// Observe runs q through the client and returns the consumer's view.
func (o *Observer[T]) Observe(ctx context.Context, q Query[T]) Result[T] {
	if !q.Enabled() {
		return o.fallback(q, StatusIdle, nil)
	}

	value, updatedAt, err := Fetch(ctx, o.client, q)
	if err != nil {
		if errors.Is(err, ErrDisabled) {
			return o.fallback(q, StatusIdle, nil)
		}
		return o.fallback(q, StatusError, err)
	}

	o.mu.Lock()
	o.last = value
	o.lastKey = q.Key
	o.updatedAt = updatedAt
	o.mu.Unlock()

	return Result[T]{
		Data:      value,
		Status:    StatusSuccess,
		UpdatedAt: updatedAt,
	}
}

// fallback reports a result without fresh data for q.
func (o *Observer[T]) fallback(q Query[T], status Status, err error) Result[T] {
	result := Result[T]{Status: status, Err: err}
	if !q.Options.KeepPreviousData {
		return result
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.updatedAt.IsZero() {
		return result
	}
	result.Data = o.last
	result.UpdatedAt = o.updatedAt
	result.IsPlaceholderData = !o.lastKey.Equal(q.Key)
	return result
}

// LastKey returns the key of the last successful observation.
func (o *Observer[T]) LastKey() Key {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastKey
}
