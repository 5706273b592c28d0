package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using go-redis/v9. Keys are namespaced with a
// prefix so several clients can share one Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new RedisStore from a Redis URL.
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: redis.NewClient(opts), prefix: prefix}, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores value without expiry; client state lives until deleted.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
