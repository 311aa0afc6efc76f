package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// RedisStorage implements Store using Redis, letting several bot replicas share
// conversations. Keys expire after the session TTL.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage connects to redisURL and verifies the connection
func NewRedisStorage(ctx context.Context, redisURL string) (*RedisStorage, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStorage{client: client}, nil
}

// NewRedisStorageFromClient wraps an existing client
func NewRedisStorageFromClient(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

// key generates a Redis key for the given session key
func (r *RedisStorage) key(sessionKey string) string {
	return sessionPrefix + sessionKey
}

// Get retrieves a record from Redis
func (r *RedisStorage) Get(ctx context.Context, key string) (*Record, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session data: %w", err)
	}

	var record Record
	if err := sonic.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	return &record, nil
}

// Put stores a record with TTL
func (r *RedisStorage) Put(ctx context.Context, record *Record, ttl time.Duration) error {
	if record.Key == "" {
		return fmt.Errorf("session key cannot be empty")
	}

	stored := *record
	stored.UpdatedAt = time.Now()

	data, err := sonic.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := r.client.Set(ctx, r.key(record.Key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session data: %w", err)
	}

	return nil
}

// Delete removes a record from Redis
func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// TTL gets the remaining TTL of a record
func (r *RedisStorage) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, r.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get TTL: %w", err)
	}
	return ttl, nil
}

// Ping tests Redis connection
func (r *RedisStorage) Ping(ctx context.Context) error {
	_, err := r.client.Ping(ctx).Result()
	return err
}

// Close closes the Redis connection
func (r *RedisStorage) Close() error {
	return r.client.Close()
}
