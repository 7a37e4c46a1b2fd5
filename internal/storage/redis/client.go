package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client stores client state in Redis, one string key per entry.
// Keys are prefixed with "<namespace>:" when a namespace is set.
type Client struct {
	cli       *redis.Client
	namespace string
}

func New(ctx context.Context, url, namespace string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli, namespace: namespace}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

func (c *Client) key(k string) string {
	if c.namespace == "" {
		return k
	}
	return c.namespace + ":" + k
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.cli.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	return c.cli.Set(ctx, c.key(key), value, 0).Err()
}

func (c *Client) Remove(ctx context.Context, key string) error {
	return c.cli.Del(ctx, c.key(key)).Err()
}
