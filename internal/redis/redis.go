package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"routeline/internal/config"

	"github.com/redis/go-redis/v9"
)

// Init parses the URL, connects and pings Redis
func Init(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), config.RedisTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return client, nil
}

// Cache is a string key/value cache with per-entry expiration
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache returns a cache whose keys are namespaced by prefix
func NewCache(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) key(k string) string {
	return c.prefix + ":" + k
}

// Get retrieves a value by key. A missing key is not an error.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, config.RedisTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores a key-value pair
func (c *Cache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, config.RedisTimeout)
	defer cancel()

	return c.client.Set(ctx, c.key(key), value, expiration).Err()
}
