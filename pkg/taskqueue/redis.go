package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey    = "svitlogics:analysis_queue"
	popInterval = 5 * time.Second
)

// RedisQueue is a redis-list-backed Queue shared by the API process and
// worker processes.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue connects to redis and verifies the connection.
func NewRedisQueue(addr string) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisQueue{client: client}, nil
}

// Enqueue pushes the task onto the shared list.
func (q *RedisQueue) Enqueue(ctx context.Context, t *Task) error {
	data, err := t.ToJSON()
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := q.client.RPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// Dequeue blocks on the list in short intervals so context cancellation is
// honored between pops.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Task, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := q.client.BLPop(ctx, popInterval, queueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("dequeue task: %w", err)
		}
		// BLPop returns [key, value].
		if len(res) < 2 {
			continue
		}
		return FromJSON(res[1])
	}
}

// Close releases the underlying redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
