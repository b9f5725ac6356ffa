// internal/provider/matches.go
package provider

import (
	"context"

	"matchstake/internal/domain"
)

// MatchProvider is the external match-history interface consumed by both
// the on-demand resolution path and the batch resolver.
//
// Implementations must distinguish three non-success outcomes:
// util.ErrNoMatches (genuinely nothing played yet), util.ErrRateLimited
// (back off until the next run) and util.ErrUpstream (provider failure).
type MatchProvider interface {
	// LatestMatch returns the most recent qualifying match for the given
	// external player id.
	LatestMatch(ctx context.Context, playerID string) (*domain.MatchResult, error)
}
