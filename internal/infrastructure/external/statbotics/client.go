// Package statbotics implements the Statbotics API client used for
// third-party team performance metrics. Every caller treats this data as
// optional: failures degrade the affected portion rather than the request.
package statbotics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/312Evan/frcstats/internal/domain/shared"
	"github.com/312Evan/frcstats/internal/domain/team"
	"github.com/312Evan/frcstats/pkg/circuitbreaker"
	"github.com/312Evan/frcstats/pkg/metrics"
	"github.com/312Evan/frcstats/pkg/retry"
)

// DefaultBaseURL is the production Statbotics API endpoint.
const DefaultBaseURL = "https://api.statbotics.io/v3"

// ClientConfig contains configuration for the Statbotics client.
type ClientConfig struct {
	// BaseURL is the Statbotics API base URL
	BaseURL string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL: DefaultBaseURL,
		Timeout: 10 * time.Second,
	}
}

// Client is the Statbotics API client.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *circuitbreaker.CircuitBreaker
	retrier    *retry.Retrier
}

// NewClient creates a new Statbotics client.
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
		logger: config.Logger,
		breaker: circuitbreaker.New("statbotics-api",
			circuitbreaker.WithFailureThreshold(3),
			circuitbreaker.WithSuccessThreshold(1),
			circuitbreaker.WithTimeout(60*time.Second),
			circuitbreaker.WithIsFailure(shared.IsUpstream),
		),
		retrier: retry.New(
			retry.WithMaxAttempts(2),
			retry.WithInitialDelay(500*time.Millisecond),
			retry.WithJitter(0.2),
			retry.WithRetryIf(shared.IsUpstream),
		),
	}
}

// teamYearDTO is the slice of the Statbotics team-year payload we consume.
type teamYearDTO struct {
	Team int `json:"team"`
	Year int `json:"year"`
	EPA  struct {
		TotalPoints struct {
			Mean float64 `json:"mean"`
		} `json:"total_points"`
		Ranks struct {
			Total struct {
				Rank int `json:"rank"`
			} `json:"total"`
		} `json:"ranks"`
	} `json:"epa"`
	Record struct {
		Wins   int `json:"wins"`
		Losses int `json:"losses"`
	} `json:"record"`
}

// GetTeamInsights fetches one team's season metrics.
func (c *Client) GetTeamInsights(ctx context.Context, teamKey string, season int) (*team.Insights, error) {
	number, err := team.ParseKey(teamKey)
	if err != nil {
		return nil, err
	}

	var dto teamYearDTO
	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doRequest(ctx, fmt.Sprintf("/team_year/%d/%d", number, season), &dto)
		})
	})
	if err != nil {
		return nil, err
	}

	return &team.Insights{
		EPA:     dto.EPA.TotalPoints.Mean,
		EPARank: dto.EPA.Ranks.Total.Rank,
		Wins:    dto.Record.Wins,
		Losses:  dto.Record.Losses,
	}, nil
}

// doRequest performs a single GET against the Statbotics API.
func (c *Client) doRequest(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordUpstreamRequestDuration("statbotics", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordUpstreamRequest("statbotics", "error")
		return shared.WrapError("statbotics", "Request", shared.ErrUpstreamUnavailable, "http request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.RecordUpstreamRequest("statbotics", "not_found")
		return shared.WrapError("statbotics", "Request", shared.ErrNotFound,
			fmt.Sprintf("resource not found: %s", path), nil)
	}
	if resp.StatusCode >= 400 {
		metrics.RecordUpstreamRequest("statbotics", "error")
		return shared.WrapError("statbotics", "Request", shared.ErrUpstreamUnavailable,
			fmt.Sprintf("api error: status %d", resp.StatusCode), nil)
	}
	metrics.RecordUpstreamRequest("statbotics", "success")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// IsHealthy checks if the Statbotics API is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	var dto teamYearDTO
	return c.doRequest(ctx, "/team_year/254/2024", &dto) == nil
}
