package paxmon

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Redis keys for keep-alive state.
const (
	RedisKeyUniverses    = "paxmon:keepalive:universes"
	RedisKeyMultiverseID = "paxmon:keepalive:multiverse_id"
)

// UniverseStore holds the forked universes a KeepAliver keeps alive and the
// multiverse they belong to.
type UniverseStore interface {
	Add(ctx context.Context, universes ...uint32) error
	Remove(ctx context.Context, universes ...uint32) error
	// List returns the tracked universes in ascending order.
	List(ctx context.Context) ([]uint32, error)
	// MultiverseID returns false when no multiverse is recorded yet.
	MultiverseID(ctx context.Context) (int64, bool, error)
	SetMultiverseID(ctx context.Context, id int64) error
	// Clear forgets every universe and the multiverse id.
	Clear(ctx context.Context) error
}

// MemoryUniverseStore keeps keep-alive state in process.
type MemoryUniverseStore struct {
	mu           sync.Mutex
	universes    map[uint32]struct{}
	multiverseID int64
	known        bool
}

// NewMemoryUniverseStore creates an empty in-process store.
func NewMemoryUniverseStore() *MemoryUniverseStore {
	return &MemoryUniverseStore{universes: make(map[uint32]struct{})}
}

func (s *MemoryUniverseStore) Add(_ context.Context, universes ...uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range universes {
		s.universes[u] = struct{}{}
	}
	return nil
}

func (s *MemoryUniverseStore) Remove(_ context.Context, universes ...uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range universes {
		delete(s.universes, u)
	}
	return nil
}

func (s *MemoryUniverseStore) List(_ context.Context) ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint32, 0, len(s.universes))
	for u := range s.universes {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *MemoryUniverseStore) MultiverseID(_ context.Context) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.multiverseID, s.known, nil
}

func (s *MemoryUniverseStore) SetMultiverseID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.multiverseID = id
	s.known = true
	return nil
}

func (s *MemoryUniverseStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.universes = make(map[uint32]struct{})
	s.multiverseID = 0
	s.known = false
	return nil
}

// RedisUniverseStore shares keep-alive state between processes through
// Redis, so any instance can keep alive universes forked by another.
type RedisUniverseStore struct {
	redis *redis.Client
}

// NewRedisUniverseStore creates a Redis backed store.
func NewRedisUniverseStore(redisClient *redis.Client) *RedisUniverseStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisUniverseStore{redis: redisClient}
}

func (s *RedisUniverseStore) Add(ctx context.Context, universes ...uint32) error {
	if len(universes) == 0 {
		return nil
	}
	if err := s.redis.SAdd(ctx, RedisKeyUniverses, members(universes)...).Err(); err != nil {
		return fmt.Errorf("add universes: %w", err)
	}
	return nil
}

func (s *RedisUniverseStore) Remove(ctx context.Context, universes ...uint32) error {
	if len(universes) == 0 {
		return nil
	}
	if err := s.redis.SRem(ctx, RedisKeyUniverses, members(universes)...).Err(); err != nil {
		return fmt.Errorf("remove universes: %w", err)
	}
	return nil
}

func (s *RedisUniverseStore) List(ctx context.Context) ([]uint32, error) {
	values, err := s.redis.SMembers(ctx, RedisKeyUniverses).Result()
	if err != nil {
		return nil, fmt.Errorf("list universes: %w", err)
	}
	out := make([]uint32, 0, len(values))
	for _, v := range values {
		u, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse universe %q: %w", v, err)
		}
		out = append(out, uint32(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *RedisUniverseStore) MultiverseID(ctx context.Context) (int64, bool, error) {
	id, err := s.redis.Get(ctx, RedisKeyMultiverseID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get multiverse id: %w", err)
	}
	return id, true, nil
}

func (s *RedisUniverseStore) SetMultiverseID(ctx context.Context, id int64) error {
	if err := s.redis.Set(ctx, RedisKeyMultiverseID, id, 0).Err(); err != nil {
		return fmt.Errorf("set multiverse id: %w", err)
	}
	return nil
}

func (s *RedisUniverseStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, RedisKeyUniverses, RedisKeyMultiverseID).Err(); err != nil {
		return fmt.Errorf("clear keep-alive state: %w", err)
	}
	return nil
}

func members(universes []uint32) []any {
	out := make([]any, len(universes))
	for i, u := range universes {
		out[i] = u
	}
	return out
}
