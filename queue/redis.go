package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue implements Queue over redis lists, with a sorted set per
// class holding delayed tasks until they come due.
type RedisQueue struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Queue = (*RedisQueue)(nil)

// RedisConfig holds connection settings for the task broker.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisOption configures a RedisQueue.
type RedisOption func(*RedisQueue) error

// WithRedisLogger sets a custom logger.
// Default is slog.Default().
func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(q *RedisQueue) error {
		if logger == nil {
			logger = slog.Default()
		}
		q.logger = logger
		return nil
	}
}

// NewRedisQueue connects to redis and verifies the connection.
func NewRedisQueue(ctx context.Context, cfg RedisConfig, opts ...RedisOption) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	q := &RedisQueue{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			client.Close()
			return nil, err
		}
	}
	return q, nil
}

func listKey(class Class) string {
	return fmt.Sprintf("sift:queue:%s", class)
}

func delayedKey(class Class) string {
	return fmt.Sprintf("sift:delayed:%s", class)
}

// Enqueue publishes a task immediately.
func (q *RedisQueue) Enqueue(ctx context.Context, class Class, task *Task) error {
	data, err := task.Encode()
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, listKey(class), data).Err()
}

// EnqueueIn parks a task in the delayed set until its due time.
func (q *RedisQueue) EnqueueIn(ctx context.Context, class Class, task *Task, delay time.Duration) error {
	if delay <= 0 {
		return q.Enqueue(ctx, class, task)
	}
	data, err := task.Encode()
	if err != nil {
		return err
	}
	due := float64(time.Now().Add(delay).UnixMilli())
	return q.client.ZAdd(ctx, delayedKey(class), redis.Z{Score: due, Member: data}).Err()
}

// Dequeue promotes due delayed tasks, then blocks on the class list.
func (q *RedisQueue) Dequeue(ctx context.Context, class Class, timeout time.Duration) (*Task, error) {
	if err := q.promoteDue(ctx, class); err != nil {
		q.logger.Warn("failed to promote delayed tasks", "class", class, "error", err)
	}

	result, err := q.client.BRPop(ctx, timeout, listKey(class)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoTask
	}
	if err != nil {
		return nil, err
	}
	// BRPop returns [key, value].
	return DecodeTask([]byte(result[1]))
}

// promoteDue moves delayed tasks whose due time has passed onto the
// ready list.
func (q *RedisQueue) promoteDue(ctx context.Context, class Class) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := q.client.ZRangeByScore(ctx, delayedKey(class), &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil || len(due) == 0 {
		return err
	}
	pipe := q.client.TxPipeline()
	for _, member := range due {
		pipe.ZRem(ctx, delayedKey(class), member)
		pipe.LPush(ctx, listKey(class), member)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Close closes the redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
