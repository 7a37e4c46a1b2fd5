package memory

import (
	"context"
	"sync"
)

// Client keeps everything in a map. Used by tests and --ephemeral runs.
type Client struct {
	mu   sync.RWMutex
	data map[string]string
}

func New() *Client {
	return &Client{data: make(map[string]string)}
}

func (c *Client) Close() error { return nil }

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data[key], nil
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *Client) Remove(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Keys returns a snapshot of the stored keys.
func (c *Client) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}
