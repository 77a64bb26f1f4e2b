// Package tba implements The Blue Alliance API client.
// This package handles all communication with the TBA read API v3,
// including match data, events, and team registration metadata.
package tba

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/312Evan/frcstats/internal/domain/match"
	"github.com/312Evan/frcstats/internal/domain/shared"
	"github.com/312Evan/frcstats/internal/domain/team"
	"github.com/312Evan/frcstats/pkg/circuitbreaker"
	"github.com/312Evan/frcstats/pkg/metrics"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultBaseURL is the production TBA read API endpoint.
const DefaultBaseURL = "https://www.thebluealliance.com/api/v3"

// TeamsPageSize is how many teams TBA returns per page of /teams/{year}/{page}.
const TeamsPageSize = 500

// ClientConfig contains configuration for the TBA API client.
type ClientConfig struct {
	// BaseURL is the TBA API base URL
	BaseURL string

	// AuthKey is the X-TBA-Auth-Key read key
	AuthKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// Cache enables ETag-based conditional requests when set
	Cache *ResponseCache

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(authKey string) ClientConfig {
	return ClientConfig{
		BaseURL:           DefaultBaseURL,
		AuthKey:           authKey,
		Timeout:           30 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is The Blue Alliance API client. It satisfies the match, event and
// team source interfaces consumed by the query handlers and the batch job.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	mapper      *Mapper
	cache       *ResponseCache
}

// NewClient creates a new TBA API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      config.Logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		breaker: circuitbreaker.New("tba-api",
			circuitbreaker.WithFailureThreshold(5),
			circuitbreaker.WithSuccessThreshold(2),
			circuitbreaker.WithTimeout(30*time.Second),
			circuitbreaker.WithIsFailure(shared.IsUpstream),
		),
		mapper: NewMapper(),
		cache:  config.Cache,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCH OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMatchesForTeam fetches all of a team's matches in a season.
func (c *Client) GetMatchesForTeam(ctx context.Context, teamKey string, season int) ([]match.Record, error) {
	path := fmt.Sprintf("/team/%s/matches/%d", url.PathEscape(teamKey), season)

	var dtos []MatchDTO
	if err := c.doRequest(ctx, path, &dtos); err != nil {
		return nil, fmt.Errorf("get matches for team %s: %w", teamKey, err)
	}
	return c.mapper.RecordsFromDTOs(dtos), nil
}

// GetMatchesForEvent fetches all matches of one event.
func (c *Client) GetMatchesForEvent(ctx context.Context, eventKey string) ([]match.Record, error) {
	path := fmt.Sprintf("/event/%s/matches", url.PathEscape(eventKey))

	var dtos []MatchDTO
	if err := c.doRequest(ctx, path, &dtos); err != nil {
		return nil, fmt.Errorf("get matches for event %s: %w", eventKey, err)
	}
	return c.mapper.RecordsFromDTOs(dtos), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT AND TEAM OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetEventsForTeam fetches the events a team attends in a season.
func (c *Client) GetEventsForTeam(ctx context.Context, teamKey string, season int) ([]match.Event, error) {
	path := fmt.Sprintf("/team/%s/events/%d", url.PathEscape(teamKey), season)

	var dtos []EventDTO
	if err := c.doRequest(ctx, path, &dtos); err != nil {
		return nil, fmt.Errorf("get events for team %s: %w", teamKey, err)
	}
	return c.mapper.EventsFromDTOs(dtos), nil
}

// GetTeam fetches a team's registration metadata.
func (c *Client) GetTeam(ctx context.Context, teamKey string) (*team.Team, error) {
	path := fmt.Sprintf("/team/%s", url.PathEscape(teamKey))

	var dto TeamDTO
	if err := c.doRequest(ctx, path, &dto); err != nil {
		return nil, fmt.Errorf("get team %s: %w", teamKey, err)
	}
	return c.mapper.TeamFromDTO(&dto), nil
}

// GetYearsParticipated fetches the seasons a team has competed in.
func (c *Client) GetYearsParticipated(ctx context.Context, teamKey string) ([]int, error) {
	path := fmt.Sprintf("/team/%s/years_participated", url.PathEscape(teamKey))

	var years []int
	if err := c.doRequest(ctx, path, &years); err != nil {
		return nil, fmt.Errorf("get years participated for %s: %w", teamKey, err)
	}
	return years, nil
}

// GetTeamsPage fetches one page of the season's team registry. Pages are
// zero-based; an empty page means the enumeration is complete.
func (c *Client) GetTeamsPage(ctx context.Context, season, page int) ([]team.Team, error) {
	path := fmt.Sprintf("/teams/%d/%d", season, page)

	var dtos []TeamDTO
	if err := c.doRequest(ctx, path, &dtos); err != nil {
		return nil, fmt.Errorf("get teams page %d: %w", page, err)
	}
	return c.mapper.TeamsFromDTOs(dtos), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs a GET with rate limiting and circuit breaking.
func (c *Client) doRequest(ctx context.Context, path string, result interface{}) error {
	if err := c.rateLimiter.Allow(ctx); err != nil {
		return shared.WrapError("tba", "Request", shared.ErrRateLimited, "client-side rate limit", err)
	}

	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.doSingleRequest(ctx, path, result)
	})
}

// doSingleRequest performs a single conditional GET against the TBA API.
func (c *Client) doSingleRequest(ctx context.Context, path string, result interface{}) error {
	fullURL := c.config.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-TBA-Auth-Key", c.config.AuthKey)

	var cachedBody []byte
	if c.cache != nil {
		etag, body, ok, cacheErr := c.cache.Get(ctx, path)
		if cacheErr != nil {
			c.logger.Warn("response cache read failed", "path", path, "error", cacheErr)
		} else if ok {
			req.Header.Set("If-None-Match", etag)
			cachedBody = body
		}
	}

	if c.config.Debug {
		c.logger.Debug("tba api request", "path", path)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordUpstreamRequestDuration("tba", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordUpstreamRequest("tba", "error")
		return shared.WrapError("tba", "Request", shared.ErrUpstreamUnavailable, "http request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && cachedBody != nil {
		metrics.RecordUpstreamRequest("tba", "not_modified")
		if result != nil {
			if err := json.Unmarshal(cachedBody, result); err != nil {
				return fmt.Errorf("unmarshal cached response: %w", err)
			}
		}
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		c.rateLimiter.RecordRateLimitHit(retryAfter)
		metrics.RecordRateLimitHit()
		metrics.RecordUpstreamRequest("tba", "rate_limited")
		return shared.ErrTBARateLimited
	}

	if resp.StatusCode == http.StatusNotFound {
		metrics.RecordUpstreamRequest("tba", "not_found")
		return shared.WrapError("tba", "Request", shared.ErrNotFound,
			fmt.Sprintf("resource not found: %s", path), nil)
	}

	if resp.StatusCode >= 400 {
		metrics.RecordUpstreamRequest("tba", "error")
		var apiErr APIErrorDTO
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error_ != "" {
			return shared.WrapError("tba", "Request", shared.ErrUpstreamUnavailable, apiErr.Error_, &apiErr)
		}
		return shared.WrapError("tba", "Request", shared.ErrUpstreamUnavailable,
			fmt.Sprintf("api error: status %d", resp.StatusCode), nil)
	}

	metrics.RecordUpstreamRequest("tba", "success")

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	if c.cache != nil {
		if etag := resp.Header.Get("ETag"); etag != "" {
			if cacheErr := c.cache.Put(ctx, path, etag, respBody); cacheErr != nil {
				c.logger.Warn("response cache write failed", "path", path, "error", cacheErr)
			}
		}
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// IsHealthy checks if the TBA API is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	var status map[string]interface{}
	return c.doSingleRequest(ctx, "/status", &status) == nil
}

// ClientStatus is a point-in-time view of the client's internals.
type ClientStatus struct {
	RateLimiter   RateLimiterStatus
	BreakerState  circuitbreaker.State
	BreakerCounts circuitbreaker.Counts
	CacheEnabled  bool
}

// Status returns the current status of the client.
func (c *Client) Status() ClientStatus {
	return ClientStatus{
		RateLimiter:   c.rateLimiter.Status(),
		BreakerState:  c.breaker.State(),
		BreakerCounts: c.breaker.Counts(),
		CacheEnabled:  c.cache != nil,
	}
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.breaker.Reset()
}
