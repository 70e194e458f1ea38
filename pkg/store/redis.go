package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

// RedisStore keeps task records in redis with a TTL. Retention is a
// deployment concern; the default keeps results around long enough for any
// realistic poller.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, prefix: "svitlogics:task:", ttl: ttl}, nil
}

// Get returns the record for a task ID, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, taskID string) (*TaskRecord, error) {
	data, err := s.client.Get(ctx, s.prefix+taskID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read task record: %w", err)
	}

	var rec TaskRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode task record: %w", err)
	}
	return &rec, nil
}

// Set writes the terminal record for a task ID.
func (s *RedisStore) Set(ctx context.Context, taskID string, rec *TaskRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode task record: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+taskID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("write task record: %w", err)
	}
	return nil
}

// Close releases the underlying redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
