package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKVStore prefixes every key with the origin namespace.
type RedisKVStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

func NewRedisKVStore(client *redis.Client, namespace string, timeout time.Duration) *RedisKVStore {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisKVStore{client: client, prefix: "bookingtrack:" + namespace + ":", timeout: timeout}
}

func (s *RedisKVStore) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("redis get", key, err)
	}
	return v, true, nil
}

func (s *RedisKVStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return unavailable("redis set", key, err)
	}
	return nil
}

func (s *RedisKVStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return unavailable("redis remove", key, err)
	}
	return nil
}
