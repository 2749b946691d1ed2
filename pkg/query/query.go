package query

import (
	"context"
	"time"
)

// FetchFunc produces the value of a query.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Query describes a cacheable backend read: its key, how to fetch it and
// the caching policy. Running it is the Client's job.
type Query[T any] struct {
	Key     Key
	Fn      FetchFunc[T]
	Options Options
}

// Options is the caching policy of a query.
type Options struct {
	// StaleTime is how long a fetched value is served from the store
	// without calling Fn again. Zero means always refetch.
	StaleTime time.Duration

	// KeepPreviousData makes an Observer keep returning the last successful
	// value, flagged as placeholder, while the query is disabled or failing.
	KeepPreviousData bool

	// Enabled is false for queries that must not run yet.
	Enabled bool

	staleTimeSet bool
}

// Option configures a Query.
type Option func(*Options)

// WithStaleTime sets the stale time.
func WithStaleTime(d time.Duration) Option {
	return func(o *Options) {
		o.StaleTime = d
		o.staleTimeSet = true
	}
}

// WithKeepPreviousData sets the keep-previous-data policy.
func WithKeepPreviousData(keep bool) Option {
	return func(o *Options) {
		o.KeepPreviousData = keep
	}
}

// WithEnabled enables or disables the query.
func WithEnabled(enabled bool) Option {
	return func(o *Options) {
		o.Enabled = enabled
	}
}

// New builds an enabled query descriptor.
func New[T any](key Key, fn FetchFunc[T], opts ...Option) Query[T] {
	options := Options{Enabled: true}
	for _, opt := range opts {
		opt(&options)
	}
	return Query[T]{
		Key:     key,
		Fn:      fn,
		Options: options,
	}
}

// Enabled reports whether the query may call its fetch function.
func (q Query[T]) Enabled() bool {
	return q.Options.Enabled && q.Fn != nil
}

// staleTime resolves the effective stale time against the client default.
func (q Query[T]) staleTime(def time.Duration) time.Duration {
	if q.Options.staleTimeSet {
		return q.Options.StaleTime
	}
	return def
}
