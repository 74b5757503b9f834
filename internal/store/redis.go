package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed implementation of the Store interface.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new RedisStore instance and verifies connectivity.
func NewRedisStore(dsn string) (*RedisStore, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Set stores a key-value pair.
func (s *RedisStore) Set(key string, value []byte, ttl time.Duration) error {
	return s.client.Set(context.Background(), key, value, ttl).Err()
}

// Get retrieves a value by its key.
func (s *RedisStore) Get(key string) ([]byte, error) {
	val, err := s.client.Get(context.Background(), key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	return val, err
}

// Del removes one or more keys.
func (s *RedisStore) Del(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(context.Background(), keys...).Err()
}

// Exists checks if a key exists.
func (s *RedisStore) Exists(key string) (bool, error) {
	count, err := s.client.Exists(context.Background(), key).Result()
	return count > 0, err
}

// SetNX sets a key-value pair if the key does not already exist.
func (s *RedisStore) SetNX(key string, value []byte, ttl time.Duration) (bool, error) {
	return s.client.SetNX(context.Background(), key, value, ttl).Result()
}

// SAdd adds members to a set.
func (s *RedisStore) SAdd(key string, members ...any) error {
	return s.client.SAdd(context.Background(), key, members...).Err()
}

// SPopN removes and returns up to n random members from a set.
func (s *RedisStore) SPopN(key string, n int64) ([]string, error) {
	return s.client.SPopN(context.Background(), key, n).Result()
}
