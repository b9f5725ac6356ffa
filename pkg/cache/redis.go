// pkg/cache/redis.go
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration. An empty Addr disables the
// cache entirely; callers must tolerate a nil client.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis, or returns nil when no address is
// configured. Cache use in this service is best-effort only.
func NewRedisClient(cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
