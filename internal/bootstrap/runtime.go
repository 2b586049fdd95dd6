// Package bootstrap wires up process-level runtime dependencies.
package bootstrap

import (
	"fmt"

	"quarry/internal/cache"
	"quarry/internal/config"
	"quarry/internal/database"
	"quarry/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData populates the database with demo content after
	// connecting. Refused in production.
	SeedDemoData bool
	SeedUsers    int
	SeedProblems int
	SeedClean    bool
}

// InitRuntime connects to the database and Redis and optionally runs demo
// seeding. The Redis client may be nil when the cache is unreachable; the
// application runs degraded without it.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemoData {
		if cfg.Env == "production" || cfg.Env == "prod" {
			return nil, nil, fmt.Errorf("refusing to seed demo data in production")
		}
		if err := seed.Seed(db, seed.Options{
			NumUsers:    opts.SeedUsers,
			NumProblems: opts.SeedProblems,
			ShouldClean: opts.SeedClean,
		}); err != nil {
			return nil, nil, fmt.Errorf("demo seeding failed: %w", err)
		}
	}

	return db, r, nil
}
