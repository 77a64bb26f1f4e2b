package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/312Evan/frcstats/internal/domain/predict"
	"github.com/312Evan/frcstats/internal/domain/shared"
	"github.com/312Evan/frcstats/internal/domain/team"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREDICT MATCH QUERY
// Forecasts a hypothetical matchup between two three-team alliances.
// ══════════════════════════════════════════════════════════════════════════════

// AllianceSize is the required roster size per alliance.
const AllianceSize = 3

// PredictMatchQuery asks for a forecast of one hypothetical matchup.
type PredictMatchQuery struct {
	// RedTeams and BlueTeams are the alliance rosters, three team keys each.
	RedTeams  []string
	BlueTeams []string

	// Season is the competition year the medians are computed over.
	// Zero means the current year.
	Season int
}

// Validate checks both rosters.
func (q *PredictMatchQuery) Validate() error {
	if len(q.RedTeams) != AllianceSize {
		return fmt.Errorf("red alliance needs exactly %d teams, got %d", AllianceSize, len(q.RedTeams))
	}
	if len(q.BlueTeams) != AllianceSize {
		return fmt.Errorf("blue alliance needs exactly %d teams, got %d", AllianceSize, len(q.BlueTeams))
	}
	for _, key := range q.RedTeams {
		if err := team.ValidateKey(key); err != nil {
			return fmt.Errorf("red alliance: %w", err)
		}
	}
	for _, key := range q.BlueTeams {
		if err := team.ValidateKey(key); err != nil {
			return fmt.Errorf("blue alliance: %w", err)
		}
	}
	if q.Season < 0 {
		return errors.New("season cannot be negative")
	}
	return nil
}

// PredictMatchResult is the matchup forecast.
type PredictMatchResult struct {
	// RedTeams and BlueTeams echo the rosters.
	RedTeams  []string `json:"red_teams"`
	BlueTeams []string `json:"blue_teams"`

	// RedMedian and BlueMedian are the alliance medians, two decimal places.
	RedMedian  float64 `json:"red_median"`
	BlueMedian float64 `json:"blue_median"`

	// PredictedWinner is "Red" or "Blue". Equal medians predict Blue.
	PredictedWinner string `json:"predicted_winner"`

	// WinProbability is the winner's estimated chance in whole percent.
	WinProbability int `json:"win_probability"`

	// Season the medians were computed over.
	Season int `json:"season"`

	// GeneratedAt is when the forecast was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// PredictMatchHandler serves matchup forecast queries.
type PredictMatchHandler struct {
	matches MatchDataSource
	logger  *slog.Logger
	now     func() time.Time
}

// NewPredictMatchHandler creates the handler.
func NewPredictMatchHandler(matches MatchDataSource, logger *slog.Logger) *PredictMatchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictMatchHandler{
		matches: matches,
		logger:  logger,
		now:     time.Now,
	}
}

// Handle forecasts the matchup. A fresh median cache is created per call so
// no state leaks between forecasts.
func (h *PredictMatchHandler) Handle(ctx context.Context, query PredictMatchQuery) (*PredictMatchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "PredictMatch", shared.ErrValidation, err.Error(), err)
	}

	season := query.Season
	if season == 0 {
		season = h.now().Year()
	}

	cache := predict.NewTeamMedianCache(h.matches, season)
	matchup, err := predict.ForMatchup(ctx, cache, query.RedTeams, query.BlueTeams)
	if err != nil {
		if shared.IsInsufficientData(err) {
			return nil, err
		}
		return nil, shared.WrapError("query", "PredictMatch", shared.ErrUpstreamUnavailable,
			"failed to compute alliance medians", err)
	}

	return &PredictMatchResult{
		RedTeams:        matchup.RedTeams,
		BlueTeams:       matchup.BlueTeams,
		RedMedian:       matchup.RedMedian,
		BlueMedian:      matchup.BlueMedian,
		PredictedWinner: string(matchup.Winner),
		WinProbability:  matchup.WinProbability,
		Season:          season,
		GeneratedAt:     h.now().UTC(),
	}, nil
}
