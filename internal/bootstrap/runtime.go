// Package bootstrap wires the process-wide database and Redis handles.
package bootstrap

import (
	"fmt"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/middleware"
	"yatube/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedGroups upserts the built-in group fixtures after the schema is applied.
	SeedGroups bool
}

// InitRuntime connects to DB and Redis and optionally seeds the default groups.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()
	if r == nil {
		middleware.Logger.Warn("redis unavailable, running without cache and session revocation")
	}

	if opts.SeedGroups {
		fixtures, err := seed.DefaultGroups()
		if err != nil {
			return nil, nil, err
		}
		groups, err := seed.Groups(db, fixtures)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to seed default groups: %w", err)
		}
		middleware.Logger.Info("default groups ensured", "count", len(groups))
	}

	return db, r, nil
}
