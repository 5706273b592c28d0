package store

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/lecturepilot/internal/config"
)

const redisKeyPrefix = "lecturepilot:"

// Open builds the Store selected by cfg and verifies it is reachable.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "sqlite":
		s, err = OpenSQLite(cfg.Path)
	case "redis":
		s, err = NewRedisStore(cfg.RedisURL, redisKeyPrefix)
	case "memory":
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q: must be one of sqlite, redis, memory", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ping %s store: %w", cfg.Backend, err)
	}
	return s, nil
}
