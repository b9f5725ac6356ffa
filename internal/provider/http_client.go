// internal/provider/http_client.go
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"matchstake/internal/domain"
	"matchstake/internal/util"
)

// HTTPClient talks to the match-history service over HTTP/JSON.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewHTTPClient creates a provider client with a bounded request timeout.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// LatestMatch fetches the player's most recent qualifying match.
func (c *HTTPClient) LatestMatch(ctx context.Context, playerID string) (*domain.MatchResult, error) {
	url := fmt.Sprintf("%s/players/%s/matches/latest", c.BaseURL, playerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", util.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrUpstream, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNoContent:
		return nil, util.ErrNoMatches
	case http.StatusNotFound:
		// The provider does not know the player at all; distinct from an
		// existing player with no recent matches (204).
		return nil, util.ErrPlayerNotFound
	case http.StatusTooManyRequests:
		return nil, util.ErrRateLimited
	default:
		return nil, fmt.Errorf("%w: http %d", util.ErrUpstream, res.StatusCode)
	}

	var out domain.MatchResult
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", util.ErrUpstream, err)
	}
	if out.MatchID == "" {
		return nil, util.ErrNoMatches
	}
	return &out, nil
}
