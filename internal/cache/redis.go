package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// generationTTL outlives any count TTL; an expired generation restarts at zero,
// which a reader holding an older generation still sees as a change.
const generationTTL = 24 * time.Hour

// RedisCounter implements UnreadCounter on Redis string keys with a TTL. Each user
// also has a generation key that Invalidate increments.
type RedisCounter struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCounter connects to redisURL and verifies the connection.
func NewRedisCounter(redisURL string, ttl time.Duration) (*RedisCounter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisCounterWithClient(client, ttl), nil
}

// NewRedisCounterWithClient creates a counter from an existing Redis client.
func NewRedisCounterWithClient(client *redis.Client, ttl time.Duration) *RedisCounter {
	return &RedisCounter{client: client, prefix: "notifications:unread:", ttl: ttl}
}

var _ UnreadCounter = (*RedisCounter)(nil)

func (c *RedisCounter) key(userID string) string {
	return c.prefix + userID
}

func (c *RedisCounter) generationKey(userID string) string {
	return c.prefix + "gen:" + userID
}

func (c *RedisCounter) Get(ctx context.Context, userID string) (int, error) {
	v, err := c.client.Get(ctx, c.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrMiss
	}
	if err != nil {
		return 0, fmt.Errorf("get unread count: %w", err)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("decode unread count: %w", err)
	}
	return n, nil
}

// Generation returns the user's invalidation generation, zero if never invalidated.
func (c *RedisCounter) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get unread generation: %w", err)
	}
	return gen, nil
}

// Set stores count only if the user's generation still equals generation. The
// generation key is watched, so an Invalidate landing between the check and the
// write aborts the transaction.
func (c *RedisCounter) Set(ctx context.Context, userID string, generation int64, count int) error {
	genKey := c.generationKey(userID)
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if errors.Is(err, redis.Nil) {
			current, err = 0, nil
		}
		if err != nil {
			return err
		}
		if current != generation {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(userID), count, c.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStale), errors.Is(err, redis.TxFailedErr):
		return ErrStale
	default:
		return fmt.Errorf("set unread count: %w", err)
	}
}

func (c *RedisCounter) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			genKey := c.generationKey(id)
			pipe.Incr(ctx, genKey)
			pipe.Expire(ctx, genKey, generationTTL)
			pipe.Del(ctx, c.key(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate unread count: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (c *RedisCounter) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCounter) Close() error {
	return c.client.Close()
}
