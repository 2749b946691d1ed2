package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/motis-project/paxmon-client/pkg/logging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrDisabled is returned by Fetch for a disabled query. The fetch function
// is not called.
var ErrDisabled = errors.New("query disabled")

// Config holds the query client defaults.
type Config struct {
	// StaleTime applies to queries that do not set their own.
	StaleTime time.Duration

	// CacheTime is how long fetched values stay in the store.
	CacheTime time.Duration
}

// DefaultConfig returns the default policy: always revalidate, keep values
// for five minutes.
func DefaultConfig() Config {
	return Config{
		StaleTime: 0,
		CacheTime: 5 * time.Minute,
	}
}

// Client runs queries against a Store. Concurrent fetches of the same key
// share a single call of the fetch function.
type Client struct {
	store  Store
	config Config
	group  singleflight.Group
	logger zerolog.Logger
}

// NewClient creates a query client. A nil store selects a MemoryStore.
func NewClient(store Store, cfg Config) *Client {
	if store == nil {
		store = NewMemoryStore()
	}
	if cfg.CacheTime <= 0 {
		cfg.CacheTime = DefaultConfig().CacheTime
	}
	if cfg.StaleTime < 0 {
		cfg.StaleTime = 0
	}
	return &Client{
		store:  store,
		config: cfg,
		logger: logging.NewLogger("query"),
	}
}

// Store returns the backing store.
func (c *Client) Store() Store {
	return c.store
}

// SetLogger replaces the component logger.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// fetchResult is what the singleflight group hands to every waiting caller.
type fetchResult struct {
	value any
	entry *Entry
}

// Fetch runs q and returns its value and the time it was fetched.
//
// A disabled query returns ErrDisabled. A stored value younger than the
// query's stale time is returned without calling the fetch function.
// Otherwise the fetch function runs once for all concurrent callers with the
// same key, and its value is stored. Errors are returned and never stored.
func Fetch[T any](ctx context.Context, c *Client, q Query[T]) (T, time.Time, error) {
	var zero T
	if !q.Enabled() {
		return zero, time.Time{}, ErrDisabled
	}

	name := q.Key.String()
	logger := c.logger.With().Str("query_key", name).Logger()

	if staleTime := q.staleTime(c.config.StaleTime); staleTime > 0 {
		if value, updatedAt, ok := lookup[T](ctx, c, q.Key, staleTime, logger); ok {
			cacheHits.Inc()
			logger.Debug().Msg("Query cache hit")
			return value, updatedAt, nil
		}
	}

	cacheMisses.Inc()
	logger.Debug().Msg("Query cache miss")

	ch := c.group.DoChan(name, func() (any, error) {
		// one caller giving up must not fail the others
		fetchCtx := context.WithoutCancel(ctx)

		value, err := q.Fn(fetchCtx)
		if err != nil {
			fetchesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		fetchesTotal.WithLabelValues("success").Inc()

		data, err := codec.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode query value: %w", err)
		}
		now := time.Now()
		entry := &Entry{
			Data:      data,
			UpdatedAt: now,
			Expires:   now.Add(c.config.CacheTime),
		}
		if err := c.store.Set(fetchCtx, q.Key, entry); err != nil {
			logger.Warn().Err(err).Msg("Failed to store query result")
		}
		return fetchResult{value: value, entry: entry}, nil
	})

	select {
	case <-ctx.Done():
		return zero, time.Time{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			sharedFetches.Inc()
		}
		if res.Err != nil {
			return zero, time.Time{}, res.Err
		}
		result := res.Val.(fetchResult)
		if value, ok := result.value.(T); ok {
			return value, result.entry.UpdatedAt, nil
		}
		var value T
		if err := codec.Unmarshal(result.entry.Data, &value); err != nil {
			return zero, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
		}
		return value, result.entry.UpdatedAt, nil
	}
}

// Cached returns the stored value for key regardless of staleness.
func Cached[T any](ctx context.Context, c *Client, key Key) (T, time.Time, bool) {
	var zero T
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		return zero, time.Time{}, false
	}
	var value T
	if err := codec.Unmarshal(entry.Data, &value); err != nil {
		return zero, time.Time{}, false
	}
	return value, entry.UpdatedAt, true
}

// lookup returns a stored value that is younger than staleTime.
func lookup[T any](ctx context.Context, c *Client, key Key, staleTime time.Duration, logger zerolog.Logger) (T, time.Time, bool) {
	var zero T

	entry, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.Warn().Err(err).Msg("Query store lookup failed")
		}
		return zero, time.Time{}, false
	}
	if entry.Age() >= staleTime {
		return zero, time.Time{}, false
	}

	var value T
	if err := codec.Unmarshal(entry.Data, &value); err != nil {
		logger.Warn().Err(err).Msg("Discarding undecodable query entry")
		return zero, time.Time{}, false
	}
	return value, entry.UpdatedAt, true
}

// Invalidate removes every stored value whose key starts with prefix, so the
// next Fetch of those queries calls the backend.
func (c *Client) Invalidate(ctx context.Context, prefix Key) (int, error) {
	removed, err := c.store.DeletePrefix(ctx, prefix)
	if removed > 0 {
		invalidations.Add(float64(removed))
	}
	if err != nil {
		return removed, fmt.Errorf("invalidate %s: %w", prefix, err)
	}
	c.logger.Debug().
		Str("query_key", prefix.String()).
		Int("removed", removed).
		Msg("Invalidated queries")
	return removed, nil
}

// Remove drops the stored value of a single query.
func (c *Client) Remove(ctx context.Context, key Key) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	invalidations.Inc()
	return nil
}
