// internal/provider/cache.go
package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"matchstake/internal/domain"
)

const matchCacheKeyPrefix = "provider:latest:"

// CachedProvider is a read-through Redis cache in front of a MatchProvider.
// The provider is rate limited, so a short TTL absorbs repeated on-demand
// resolution attempts for the same player. Redis failures degrade to the
// wrapped provider; the cache is never load-bearing.
type CachedProvider struct {
	inner MatchProvider
	rdb   *redis.Client
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachedProvider wraps a MatchProvider with a Redis result cache.
// A nil client disables caching and returns the inner provider untouched.
func NewCachedProvider(inner MatchProvider, rdb *redis.Client, ttl time.Duration, log *slog.Logger) MatchProvider {
	if rdb == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedProvider{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func matchCacheKey(playerID string) string {
	return matchCacheKeyPrefix + playerID
}

// LatestMatch serves from cache when possible, otherwise delegates and
// stores the fresh result. Only successful lookups are cached; error states
// (rate limit, no matches) must stay observable to callers.
func (p *CachedProvider) LatestMatch(ctx context.Context, playerID string) (*domain.MatchResult, error) {
	key := matchCacheKey(playerID)
	if bs, err := p.rdb.Get(ctx, key).Bytes(); err == nil && len(bs) > 0 {
		var cached domain.MatchResult
		if json.Unmarshal(bs, &cached) == nil {
			return &cached, nil
		}
	}

	result, err := p.inner.LatestMatch(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if bs, err := json.Marshal(result); err == nil {
		if err := p.rdb.Set(ctx, key, bs, p.ttl).Err(); err != nil {
			p.log.Warn("match cache write failed", "player_id", playerID, "error", err)
		}
	}
	return result, nil
}
