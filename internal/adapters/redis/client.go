package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/internal/adapters/config"
	"github.com/andrewsem/factwatch/pkg/logger"
)

// Client wraps a RedLock manager for distributed locking plus a standard
// Redis client for caching.
type Client struct {
	lockManager *redlock.RedLock
	cache       *redis.Client
}

// New connects to Redis and initializes the lock manager.
func New(cfg *config.RedisConfig) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// A single instance works but is less fault tolerant; a cluster would
	// pass multiple addresses here.
	lockAddrs := []string{fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)}
	lockManager, err := redlock.NewRedLock(ctx, lockAddrs)
	if err != nil {
		return nil, fmt.Errorf("failed to create redlock manager: %w", err)
	}

	cache := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := cache.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis client initialized",
		zap.String("address", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &Client{lockManager: lockManager, cache: cache}, nil
}

// NewAnalysisLock creates a distributed lock guarding one entity's analysis.
func (c *Client) NewAnalysisLock(entityID string) *AnalysisLock {
	return NewAnalysisLock(c.lockManager, entityID)
}

// Close closes the cache connection. RedLock connections close on their own.
func (c *Client) Close() error {
	if c.cache != nil {
		logger.Info("closing redis client")
		if err := c.cache.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}
	return nil
}

// Health pings the cache connection, then acquires and releases a
// short-lived probe lock.
func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.cache.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	const probe = "health:check"
	expiry, err := c.lockManager.Lock(ctx, probe, 1*time.Second)
	if err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	if expiry <= 0 {
		return fmt.Errorf("redis health check failed: invalid expiry")
	}
	_ = c.lockManager.UnLock(ctx, probe)

	return nil
}

// Get retrieves a cached value.
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	return c.cache.Get(ctx, key)
}

// Set stores a value with a TTL.
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	return c.cache.Set(ctx, key, value, expiration)
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return c.cache.Del(ctx, keys...)
}
