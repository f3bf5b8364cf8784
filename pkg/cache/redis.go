package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/northpeakit/site/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Client holds the Redis client
type Client struct {
	Redis *redis.Client
}

// NewClient parses redisURL and checks the connection.
func NewClient(redisURL string, log logger.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}

	client := &Client{Redis: redis.NewClient(opts)}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}

	if log != nil {
		log.Info("redis connected", "addr", opts.Addr, "db", opts.DB)
	}
	return client, nil
}

// NewFromRedis wraps an existing go-redis client.
func NewFromRedis(r *redis.Client) *Client {
	return &Client{Redis: r}
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.Redis.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.Redis.Close()
}

// IncrWindow increments the counter for key in a fixed window and returns the
// new count and the time left in the window. The window starts on the first hit.
func (c *Client) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := c.Redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}

	if count == 1 {
		if err := c.Redis.Expire(ctx, key, window).Err(); err != nil {
			return count, 0, fmt.Errorf("failed to set expiry on %s: %w", key, err)
		}
		return count, window, nil
	}

	ttl, err := c.Redis.TTL(ctx, key).Result()
	if err != nil {
		return count, 0, fmt.Errorf("failed to read ttl of %s: %w", key, err)
	}
	if ttl < 0 {
		// a previous Expire was lost; restart the window rather than block forever
		if err := c.Redis.Expire(ctx, key, window).Err(); err != nil {
			return count, 0, fmt.Errorf("failed to set expiry on %s: %w", key, err)
		}
		ttl = window
	}
	return count, ttl, nil
}
