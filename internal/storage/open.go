package storage

import (
	"context"
	"fmt"

	"fitnest/client/internal/config"
	"fitnest/client/internal/storage/memory"
	"fitnest/client/internal/storage/redis"
	"fitnest/client/internal/storage/sqlstore"
)

// Open builds the Store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "redis":
		c, err := redis.New(ctx, cfg.RedisURL, cfg.Namespace)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "sqlite", "postgres":
		target := cfg.Path
		if cfg.Driver == "postgres" {
			target = cfg.DSN
		}
		c, err := sqlstore.Open(cfg.Driver, target)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
}
