package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stresscheck/internal/common/config"
)

// RedisClient owns the connection used by the classifier cache.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis connects and pings once.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
		opts.MinIdleConns = cfg.PoolSize / 5
	}

	c := &RedisClient{Client: redis.NewClient(opts)}
	if err := c.Ping(ctx); err != nil {
		_ = c.Client.Close()
		return nil, err
	}
	return c, nil
}

// Ping is used as the redis readiness check.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s failed: %w", c.Client.Options().Addr, err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

func (c *RedisClient) GetClient() *redis.Client {
	return c.Client
}
