package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/internal/core/port"
	"github.com/redis/go-redis/v9"
)

var _ port.CartSlot = (*RedisSlot)(nil)

const redisKeyPrefix = "paintstore:"

// A RedisSlot keeps slots as plain string values. A zero ttl never
// expires them, otherwise every write refreshes the ttl.
type RedisSlot struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSlot(client *redis.Client, ttl time.Duration) RedisSlot {
	return RedisSlot{client: client, ttl: ttl}
}

// NewRedisClient parses the url and checks the server is reachable.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	const op = "NewRedisClient"
	log := slog.With("op", op)

	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid redis url: %w", op, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: redis is unavailable: %w", op, err)
	}
	log.Info("redis is available", "addr", opts.Addr)
	return client, nil
}

func (s RedisSlot) Get(ctx context.Context, key string) (string, error) {
	const op = "RedisSlot.Get"

	v, err := s.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (s RedisSlot) Set(ctx context.Context, key, value string) error {
	const op = "RedisSlot.Set"

	if err := s.client.Set(ctx, redisKey(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}
