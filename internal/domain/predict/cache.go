// Package predict implements alliance outcome prediction: per-team median
// caching scoped to one computation, median-of-medians alliance scoring, and
// the win-probability estimate for single matchups.
package predict

import (
	"context"
	"sync"

	"github.com/312Evan/frcstats/internal/domain/match"
	"github.com/312Evan/frcstats/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEAM MEDIAN CACHE
// ══════════════════════════════════════════════════════════════════════════════

// MatchSource provides a team's season matches. Satisfied by the upstream
// match-data client.
type MatchSource interface {
	GetMatchesForTeam(ctx context.Context, teamKey string, season int) ([]match.Record, error)
}

// TeamMedianCache memoizes per-team median scores for a single season within
// one request or batch unit. It is created fresh at the top of each
// computation and discarded at the end; it must never be shared across
// unrelated requests.
//
// Concurrent first access for the same team fetches at most once: each key
// carries its own latch, so parallel alliance lookups deduplicate upstream
// calls.
type TeamMedianCache struct {
	source MatchSource
	season int

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// cacheEntry latches a single fetch-and-compute for one team.
type cacheEntry struct {
	once   sync.Once
	median float64
	err    error
}

// NewTeamMedianCache creates a cache scoped to one season.
func NewTeamMedianCache(source MatchSource, season int) *TeamMedianCache {
	return &TeamMedianCache{
		source:  source,
		season:  season,
		entries: make(map[string]*cacheEntry),
	}
}

// Get returns the team's median alliance score for the cache's season,
// fetching and computing it on first access. Subsequent lookups within the
// same cache return the stored value without an upstream call.
func (c *TeamMedianCache) Get(ctx context.Context, teamKey string) (float64, error) {
	c.mu.Lock()
	entry, ok := c.entries[teamKey]
	if !ok {
		entry = &cacheEntry{}
		c.entries[teamKey] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.median, entry.err = c.compute(ctx, teamKey)
	})
	return entry.median, entry.err
}

// compute fetches the team's played matches and takes the median of its
// alliance scores.
func (c *TeamMedianCache) compute(ctx context.Context, teamKey string) (float64, error) {
	records, err := c.source.GetMatchesForTeam(ctx, teamKey, c.season)
	if err != nil {
		return 0, err
	}

	scores := make([]int, 0, len(records))
	for _, rec := range records {
		if !rec.IsPlayed() {
			continue
		}
		scores = append(scores, rec.ScoreFor(teamKey))
	}
	return stats.MedianInts(scores), nil
}

// Len returns the number of cached teams. Useful for tests and metrics.
func (c *TeamMedianCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
