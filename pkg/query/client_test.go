package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusValue struct {
	TripCount uint64 `json:"trip_count"`
}

func countingQuery(calls *atomic.Int32, key Key, opts ...Option) Query[statusValue] {
	return New(key, func(ctx context.Context) (statusValue, error) {
		n := calls.Add(1)
		return statusValue{TripCount: uint64(n)}, nil
	}, opts...)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Duration(0), cfg.StaleTime)
	assert.Equal(t, 5*time.Minute, cfg.CacheTime)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(nil, Config{})
	assert.IsType(t, &MemoryStore{}, client.Store())
	assert.Equal(t, 5*time.Minute, client.config.CacheTime)
}

func TestFetch_Disabled(t *testing.T) {
	client := NewClient(nil, DefaultConfig())
	var calls atomic.Int32

	q := countingQuery(&calls, Key{"paxmon", "status", 0}, WithEnabled(false))
	_, _, err := Fetch(context.Background(), client, q)

	assert.ErrorIs(t, err, ErrDisabled)
	assert.Zero(t, calls.Load())
}

func TestFetch_NilFnIsDisabled(t *testing.T) {
	client := NewClient(nil, DefaultConfig())
	q := New[statusValue](Key{"paxmon"}, nil)

	assert.False(t, q.Enabled())
	_, _, err := Fetch(context.Background(), client, q)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestFetch_ZeroStaleTimeAlwaysRevalidates(t *testing.T) {
	client := NewClient(nil, DefaultConfig())
	var calls atomic.Int32
	q := countingQuery(&calls, Key{"paxmon", "status", 0})

	first, _, err := Fetch(context.Background(), client, q)
	require.NoError(t, err)
	second, _, err := Fetch(context.Background(), client, q)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.TripCount)
	assert.Equal(t, uint64(2), second.TripCount)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_FreshValueServedFromStore(t *testing.T) {
	client := NewClient(nil, DefaultConfig())
	var calls atomic.Int32
	q := countingQuery(&calls, Key{"paxmon", "dataset_info"}, WithStaleTime(time.Minute))

	first, firstAt, err := Fetch(context.Background(), client, q)
	require.NoError(t, err)
	second, secondAt, err := Fetch(context.Background(), client, q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.WithinDuration(t, firstAt, secondAt, time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_ClientDefaultStaleTime(t *testing.T) {
	client := NewClient(nil, Config{StaleTime: time.Minute, CacheTime: time.Hour})
	var calls atomic.Int32
	key := Key{"paxmon", "dataset_info"}

	_, _, err := Fetch(context.Background(), client, countingQuery(&calls, key))
	require.NoError(t, err)
	_, _, err = Fetch(context.Background(), client, countingQuery(&calls, key))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// an explicit zero overrides the client default
	_, _, err = Fetch(context.Background(), client, countingQuery(&calls, key, WithStaleTime(0)))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_StaleValueRefetched(t *testing.T) {
	store := NewMemoryStore()
	client := NewClient(store, DefaultConfig())
	key := Key{"paxmon", "status", 0}

	old := &Entry{
		Data:      []byte(`{"trip_count":99}`),
		UpdatedAt: time.Now().Add(-time.Hour),
		Expires:   time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Set(context.Background(), key, old))

	var calls atomic.Int32
	value, _, err := Fetch(context.Background(), client, countingQuery(&calls, key, WithStaleTime(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), value.TripCount)
}

func TestFetch_ErrorsAreNotStored(t *testing.T) {
	client := NewClient(nil, DefaultConfig())
	key := Key{"paxmon", "status", 0}
	backendErr := errors.New("backend down")

	failing := New(key, func(ctx context.Context) (statusValue, error) {
		return statusValue{}, backendErr
	}, WithStaleTime(time.Minute))

	_, _, err := Fetch(context.Background(), client, failing)
	assert.ErrorIs(t, err, backendErr)

	_, _, ok := Cached[statusValue](context.Background(), client, key)
	assert.False(t, ok)
}

func TestFetch_ConcurrentCallsShareOneFetch(t *testing.T) {
	client := NewClient(nil, DefaultConfig())
	key := Key{"paxmon", "find_trips", 0, 100}

	var calls atomic.Int32
	release := make(chan struct{})
	q := New(key, func(ctx context.Context) (statusValue, error) {
		calls.Add(1)
		<-release
		return statusValue{TripCount: 7}, nil
	})

	const callers = 10
	var wg sync.WaitGroup
	var started sync.WaitGroup
	results := make([]statusValue, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		started.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			results[i], _, errs[i] = Fetch(context.Background(), client, q)
		}(i)
	}

	started.Wait()
	// let every caller reach the singleflight group before releasing
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, uint64(7), results[i].TripCount)
	}
}

func TestFetch_CallerCancellation(t *testing.T) {
	client := NewClient(nil, DefaultConfig())
	release := make(chan struct{})
	defer close(release)

	q := New(Key{"slow"}, func(ctx context.Context) (statusValue, error) {
		<-release
		return statusValue{}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := Fetch(ctx, client, q)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetch_StoresValue(t *testing.T) {
	client := NewClient(nil, DefaultConfig())
	var calls atomic.Int32
	key := Key{"paxmon", "status", 3}

	_, updatedAt, err := Fetch(context.Background(), client, countingQuery(&calls, key))
	require.NoError(t, err)

	cached, cachedAt, ok := Cached[statusValue](context.Background(), client, key)
	require.True(t, ok)
	assert.Equal(t, uint64(1), cached.TripCount)
	assert.WithinDuration(t, updatedAt, cachedAt, time.Millisecond)
}

func TestInvalidate(t *testing.T) {
	client := NewClient(nil, Config{StaleTime: time.Hour})
	ctx := context.Background()

	var statusCalls, tripCalls, otherCalls atomic.Int32
	status := countingQuery(&statusCalls, Key{"paxmon", "status", 0})
	trip := countingQuery(&tripCalls, Key{"paxmon", "trip", "groups", 1})
	other := countingQuery(&otherCalls, Key{"lookup", "station"})

	for _, q := range []Query[statusValue]{status, trip, other} {
		_, _, err := Fetch(ctx, client, q)
		require.NoError(t, err)
	}

	removed, err := client.Invalidate(ctx, Key{"paxmon"})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	for _, q := range []Query[statusValue]{status, trip, other} {
		_, _, err := Fetch(ctx, client, q)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(2), statusCalls.Load())
	assert.Equal(t, int32(2), tripCalls.Load())
	assert.Equal(t, int32(1), otherCalls.Load())
}

func TestRemove(t *testing.T) {
	client := NewClient(nil, Config{StaleTime: time.Hour})
	ctx := context.Background()
	var calls atomic.Int32
	q := countingQuery(&calls, Key{"paxmon", "dataset_info"})

	_, _, err := Fetch(ctx, client, q)
	require.NoError(t, err)
	require.NoError(t, client.Remove(ctx, q.Key))
	_, _, err = Fetch(ctx, client, q)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_RedisStore(t *testing.T) {
	_, redisClient := newMiniRedis(t)
	client := NewClient(NewRedisStore(redisClient), Config{StaleTime: time.Minute})
	ctx := context.Background()

	var calls atomic.Int32
	q := countingQuery(&calls, Key{"paxmon", "status", 0})

	_, _, err := Fetch(ctx, client, q)
	require.NoError(t, err)

	// a second client on the same Redis sees the value
	peer := NewClient(NewRedisStore(redisClient), Config{StaleTime: time.Minute})
	value, _, err := Fetch(ctx, peer, q)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), value.TripCount)
	assert.Equal(t, int32(1), calls.Load())
}
