package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"cartera/internal/adapters/config"
)

// Client wraps the Redis client with the few operations the budget
// spend cache needs
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks Redis connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetString retrieves a string value; returns redis.Nil error when missing
func (c *Client) GetString(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// IncrByFloat atomically adds value to the float stored at key
func (c *Client) IncrByFloat(ctx context.Context, key string, value float64) (float64, error) {
	return c.rdb.IncrByFloat(ctx, key, value).Result()
}

// Expire sets a TTL on a key
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.rdb.Expire(ctx, key, ttl).Err()
}
