package query

import (
	"context"

	"github.com/312Evan/frcstats/internal/domain/match"
	"github.com/312Evan/frcstats/internal/domain/team"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPSTREAM SOURCES
// The queries depend on narrow interfaces; the external clients satisfy them.
// ══════════════════════════════════════════════════════════════════════════════

// MatchDataSource is the slice of the match-data API the queries consume.
type MatchDataSource interface {
	// GetMatchesForTeam returns all of a team's matches in a season.
	GetMatchesForTeam(ctx context.Context, teamKey string, season int) ([]match.Record, error)

	// GetMatchesForEvent returns all matches of an event.
	GetMatchesForEvent(ctx context.Context, eventKey string) ([]match.Record, error)

	// GetEventsForTeam returns the events a team attends in a season.
	GetEventsForTeam(ctx context.Context, teamKey string, season int) ([]match.Event, error)

	// GetTeam returns a team's registration metadata.
	GetTeam(ctx context.Context, teamKey string) (*team.Team, error)

	// GetYearsParticipated returns the seasons a team has competed in.
	GetYearsParticipated(ctx context.Context, teamKey string) ([]int, error)
}

// InsightsSource provides third-party team performance metrics. An error is
// never fatal to a query; the affected portion degrades to "N/A".
type InsightsSource interface {
	GetTeamInsights(ctx context.Context, teamKey string, season int) (*team.Insights, error)
}
