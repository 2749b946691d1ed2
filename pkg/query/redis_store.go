package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every Redis key written by a RedisStore.
const DefaultNamespace = "paxmon:query:"

// RedisStore keeps query entries in Redis. The Redis TTL follows the
// entry's cache time, so expired entries disappear on their own.
type RedisStore struct {
	redis     *redis.Client
	namespace string
}

// NewRedisStore creates a store with the default namespace.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return NewRedisStoreWithNamespace(redisClient, DefaultNamespace)
}

// NewRedisStoreWithNamespace creates a store whose keys start with namespace.
func NewRedisStoreWithNamespace(redisClient *redis.Client, namespace string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis:     redisClient,
		namespace: namespace,
	}
}

func (s *RedisStore) redisKey(key Key) string {
	return s.namespace + key.String()
}

// Get retrieves an entry by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (s *RedisStore) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := s.redis.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		storeErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := codec.Unmarshal(data, &entry); err != nil {
		storeErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		_ = s.Delete(ctx, key)
		return nil, ErrCacheMiss
	}

	return &entry, nil
}

// Set stores an entry with a TTL derived from its Expires field.
func (s *RedisStore) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	data, err := codec.Marshal(entry)
	if err != nil {
		storeErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, s.redisKey(key), data, ttl).Err(); err != nil {
		storeErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes an entry.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.redis.Del(ctx, s.redisKey(key)).Err(); err != nil {
		storeErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeletePrefix removes the entry stored under prefix itself and every
// entry below it, walking the keyspace with SCAN.
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix Key) (int, error) {
	encoded := prefix.String()
	pattern := s.prefixPattern(encoded)

	var removed int
	iter := s.redis.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.redis.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		name := iter.Val()
		// the glob is a superset, confirm on the decoded key
		if !matchPrefix(strings.TrimPrefix(name, s.namespace), encoded) {
			continue
		}
		batch = append(batch, name)
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				storeErrors.WithLabelValues("delete").Inc()
				return removed, fmt.Errorf("redis del: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		storeErrors.WithLabelValues("scan").Inc()
		return removed, fmt.Errorf("redis scan: %w", err)
	}
	if err := flush(); err != nil {
		storeErrors.WithLabelValues("delete").Inc()
		return removed, fmt.Errorf("redis del: %w", err)
	}

	return removed, nil
}

// prefixPattern builds a SCAN MATCH pattern covering every key under the
// encoded prefix.
func (s *RedisStore) prefixPattern(encoded string) string {
	if encoded == "[]" {
		return escapeGlob(s.namespace) + "*"
	}
	return escapeGlob(s.namespace+strings.TrimSuffix(encoded, "]")) + "*"
}

// escapeGlob escapes the characters Redis treats as glob syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
