package storage

import "context"

// Store is the key/value surface that stands in for browser local storage.
// A missing key reads as "" with a nil error.
// Implementations: memory.Client, redis.Client, sqlstore.Client.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
