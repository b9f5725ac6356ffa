// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"matchstake/pkg/cache"
	"matchstake/pkg/db"
)

// ProviderConfig holds the external match-history provider settings.
type ProviderConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// ResolverConfig holds the reconciliation-loop pacing settings.
type ResolverConfig struct {
	MinGameDuration time.Duration
	CallDelay       time.Duration
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	DB         db.Config
	Redis      cache.Config
	Provider   ProviderConfig
	Resolver   ResolverConfig
	// InternalToken is the shared secret required by the scheduler trigger
	// and the other internal collaborator endpoints.
	InternalToken string
}

// LoadConfig loads configuration from environment variables.
// It returns an AppConfig instance or an error if any required variable is
// missing or invalid.
func LoadConfig() (*AppConfig, error) {
	serverPort := envOr("SERVER_PORT", "8080")

	dbPort, err := strconv.Atoi(envOr("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	redisDB, err := strconv.Atoi(envOr("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	providerTimeout, err := durationOr("PROVIDER_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	providerCacheTTL, err := durationOr("PROVIDER_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	minGameDuration, err := durationOr("RESOLVER_MIN_GAME_DURATION", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	callDelay, err := durationOr("RESOLVER_CALL_DELAY", 1500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	internalToken := os.Getenv("INTERNAL_TOKEN")
	if internalToken == "" {
		return nil, fmt.Errorf("INTERNAL_TOKEN must be set")
	}

	return &AppConfig{
		ServerPort: serverPort,
		DB: db.Config{
			Host:     envOr("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     envOr("DB_USER", "user"),
			Password: envOr("DB_PASSWORD", "password"),
			DBName:   envOr("DB_NAME", "matchstake"),
			SSLMode:  envOr("DB_SSLMODE", "disable"),
		},
		Redis: cache.Config{
			Addr:     os.Getenv("REDIS_ADDR"), // empty disables the cache
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Provider: ProviderConfig{
			BaseURL:  envOr("PROVIDER_BASE_URL", "http://localhost:9090"),
			APIKey:   os.Getenv("PROVIDER_API_KEY"),
			Timeout:  providerTimeout,
			CacheTTL: providerCacheTTL,
		},
		Resolver: ResolverConfig{
			MinGameDuration: minGameDuration,
			CallDelay:       callDelay,
		},
		InternalToken: internalToken,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
