// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/312Evan/frcstats/internal/domain/match"
	"github.com/312Evan/frcstats/internal/domain/predict"
	"github.com/312Evan/frcstats/internal/domain/schedule"
	"github.com/312Evan/frcstats/internal/domain/shared"
	"github.com/312Evan/frcstats/internal/domain/stats"
	"github.com/312Evan/frcstats/internal/domain/team"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEAM REVIEW QUERY
// The main read path: one team's season in full - record, median, upcoming
// match predictions and queue time estimates.
// ══════════════════════════════════════════════════════════════════════════════

// MaxReviewPredictions caps how many upcoming matches get a prediction in a
// single review. Each prediction costs up to six upstream fetches.
const MaxReviewPredictions = 5

// notAvailable is the display sentinel for portions that could not be served.
const notAvailable = "N/A"

// TeamReviewQuery asks for a team's season review.
type TeamReviewQuery struct {
	// TeamKey is the canonical team key, e.g. "frc254".
	TeamKey string

	// Season is the competition year. Zero means the current year.
	Season int
}

// Validate checks the query parameters.
func (q *TeamReviewQuery) Validate() error {
	if q.TeamKey == "" {
		return errors.New("team_key is required")
	}
	if err := team.ValidateKey(q.TeamKey); err != nil {
		return fmt.Errorf("invalid team key: %w", err)
	}
	if q.Season < 0 {
		return errors.New("season cannot be negative")
	}
	return nil
}

// MatchResultDTO is one played match from the subject team's perspective.
type MatchResultDTO struct {
	// Event is the display name of the event.
	Event string `json:"event"`

	// Match is the formatted match label, e.g. "Miket Qualifier 12".
	Match string `json:"match"`

	// Alliance is the side the team played on: "Red" or "Blue".
	Alliance string `json:"alliance"`

	// RedScore and BlueScore are the final alliance scores.
	RedScore  int `json:"red_score"`
	BlueScore int `json:"blue_score"`

	// Outcome is "Win", "Loss" or "Tie".
	Outcome string `json:"outcome"`
}

// PredictionDTO is the forecast for one upcoming match. Available is false
// when the prediction could not be computed; the other fields are then empty.
type PredictionDTO struct {
	// Match is the formatted match label.
	Match string `json:"match"`

	// RedAlliance and BlueAlliance are the rosters joined for display.
	RedAlliance  string `json:"red_alliance,omitempty"`
	BlueAlliance string `json:"blue_alliance,omitempty"`

	// RedMedian and BlueMedian are the alliance medians, two decimal places.
	RedMedian  float64 `json:"red_median,omitempty"`
	BlueMedian float64 `json:"blue_median,omitempty"`

	// PredictedWinner is "Red" or "Blue".
	PredictedWinner string `json:"predicted_winner,omitempty"`

	// Available is false when the forecast degraded.
	Available bool `json:"available"`
}

// QueueEstimateDTO is the projected start for one upcoming match.
type QueueEstimateDTO struct {
	// Match is the formatted match label.
	Match string `json:"match"`

	// MinutesUntilStart is the projected minutes until the match starts.
	MinutesUntilStart int `json:"minutes_until_start,omitempty"`

	// ProjectedStart is the projected start time.
	ProjectedStart *time.Time `json:"projected_start,omitempty"`

	// MayHaveStarted is set when the projection lies in the past.
	MayHaveStarted bool `json:"may_have_started,omitempty"`

	// Available is false when no estimate could be computed.
	Available bool `json:"available"`
}

// TeamReviewResult is the full season review for one team.
type TeamReviewResult struct {
	// TeamKey and TeamNumber identify the team.
	TeamKey    string `json:"team_key"`
	TeamNumber int    `json:"team_number"`

	// Nickname is the team's display name, empty when metadata is unavailable.
	Nickname string `json:"nickname,omitempty"`

	// Season is the competition year reviewed.
	Season int `json:"season"`

	// Record is the season record as "W-L-T".
	Record string `json:"record"`

	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`

	// WinPercentage is formatted as "66.67%", or "N/A" with no played matches.
	WinPercentage string `json:"win_percentage"`

	// MedianScore is the team's median alliance score over the season's
	// played matches, rounded to two decimal places.
	MedianScore float64 `json:"median_score"`

	// ExternalRank is the third-party season rank, "N/A" when unavailable.
	ExternalRank string `json:"external_rank"`

	// YearsParticipated lists the seasons the team has competed in.
	YearsParticipated []int `json:"years_participated,omitempty"`

	// Results are the played matches, sorted by event then match key.
	Results []MatchResultDTO `json:"results"`

	// Predictions cover at most MaxReviewPredictions upcoming matches.
	Predictions []PredictionDTO `json:"predictions"`

	// QueueEstimates cover the same upcoming matches as Predictions.
	QueueEstimates []QueueEstimateDTO `json:"queue_estimates"`

	// GeneratedAt is when the review was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// TeamReviewHandler serves team review queries.
type TeamReviewHandler struct {
	matches  MatchDataSource
	insights InsightsSource
	logger   *slog.Logger
	now      func() time.Time
}

// NewTeamReviewHandler creates the handler. The insights source may be nil;
// the external rank then reads "N/A".
func NewTeamReviewHandler(matches MatchDataSource, insights InsightsSource, logger *slog.Logger) *TeamReviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamReviewHandler{
		matches:  matches,
		insights: insights,
		logger:   logger,
		now:      time.Now,
	}
}

// reviewFetch is the raw material gathered concurrently for one review.
// Every portion degrades to its zero value on failure; a review is always
// servable, if only as a placeholder.
type reviewFetch struct {
	records  []match.Record
	events   []match.Event
	meta     *team.Team
	years    []int
	insights *team.Insights
}

// Handle computes the season review for one team.
func (h *TeamReviewHandler) Handle(ctx context.Context, query TeamReviewQuery) (*TeamReviewResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "TeamReview", shared.ErrValidation, err.Error(), err)
	}

	season := query.Season
	if season == 0 {
		season = h.now().Year()
	}

	fetched := h.fetch(ctx, query.TeamKey, season)

	processed := match.Process(query.TeamKey, fetched.records, match.NamesByKey(fetched.events))

	upcoming := match.Upcoming(fetched.records, h.now())
	if len(upcoming) > MaxReviewPredictions {
		upcoming = upcoming[:MaxReviewPredictions]
	}

	number, _ := team.ParseKey(query.TeamKey)

	result := &TeamReviewResult{
		TeamKey:           query.TeamKey,
		TeamNumber:        number,
		Season:            season,
		Record:            fmt.Sprintf("%d-%d-%d", processed.Tally.Wins, processed.Tally.Losses, processed.Tally.Ties),
		Wins:              processed.Tally.Wins,
		Losses:            processed.Tally.Losses,
		Ties:              processed.Tally.Ties,
		WinPercentage:     formatWinPercentage(processed.Tally),
		MedianScore:       stats.Round2(stats.MedianInts(processed.Scores)),
		ExternalRank:      formatExternalRank(fetched.insights),
		YearsParticipated: fetched.years,
		Results:           toResultDTOs(processed.Results),
		Predictions:       h.predictUpcoming(ctx, upcoming, season),
		QueueEstimates:    h.estimateQueues(ctx, upcoming),
		GeneratedAt:       h.now().UTC(),
	}

	if fetched.meta != nil {
		result.Nickname = fetched.meta.Nickname
	}

	return result, nil
}

// fetch gathers all upstream portions concurrently. Failures are logged and
// leave the zero value in place.
func (h *TeamReviewHandler) fetch(ctx context.Context, teamKey string, season int) *reviewFetch {
	fetched := &reviewFetch{}

	var wg sync.WaitGroup
	run := func(portion string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				h.logger.Warn("review portion unavailable",
					"portion", portion,
					"team", teamKey,
					"error", err,
				)
			}
		}()
	}

	run("matches", func() (err error) {
		fetched.records, err = h.matches.GetMatchesForTeam(ctx, teamKey, season)
		return err
	})
	run("events", func() (err error) {
		fetched.events, err = h.matches.GetEventsForTeam(ctx, teamKey, season)
		return err
	})
	run("team_metadata", func() (err error) {
		fetched.meta, err = h.matches.GetTeam(ctx, teamKey)
		return err
	})
	run("years_participated", func() (err error) {
		fetched.years, err = h.matches.GetYearsParticipated(ctx, teamKey)
		return err
	})
	if h.insights != nil {
		run("insights", func() (err error) {
			fetched.insights, err = h.insights.GetTeamInsights(ctx, teamKey, season)
			return err
		})
	}

	wg.Wait()
	return fetched
}

// predictUpcoming forecasts each upcoming match. A failed forecast degrades
// to an unavailable entry for that match only.
func (h *TeamReviewHandler) predictUpcoming(ctx context.Context, upcoming []match.Record, season int) []PredictionDTO {
	dtos := make([]PredictionDTO, 0, len(upcoming))
	if len(upcoming) == 0 {
		return dtos
	}

	cache := predict.NewTeamMedianCache(h.matches, season)
	for _, rec := range upcoming {
		p, err := predict.ForMatch(ctx, cache, rec)
		if err != nil {
			label, labelErr := match.FormatKey(rec.Key)
			if labelErr != nil {
				label = rec.Key
			}
			h.logger.Warn("prediction unavailable", "match", rec.Key, "error", err)
			dtos = append(dtos, PredictionDTO{Match: label, Available: false})
			continue
		}
		dtos = append(dtos, PredictionDTO{
			Match:           p.Label,
			RedAlliance:     p.RedTeams,
			BlueAlliance:    p.BlueTeams,
			RedMedian:       p.RedMedian,
			BlueMedian:      p.BlueMedian,
			PredictedWinner: string(p.Winner),
			Available:       true,
		})
	}
	return dtos
}

// estimateQueues projects start times for the upcoming matches, grouped per
// event so each event's history is fetched once.
func (h *TeamReviewHandler) estimateQueues(ctx context.Context, upcoming []match.Record) []QueueEstimateDTO {
	dtos := make([]QueueEstimateDTO, 0, len(upcoming))
	if len(upcoming) == 0 {
		return dtos
	}

	byEvent := make(map[string][]match.Record)
	order := make([]string, 0)
	for _, rec := range upcoming {
		if _, ok := byEvent[rec.EventKey]; !ok {
			order = append(order, rec.EventKey)
		}
		byEvent[rec.EventKey] = append(byEvent[rec.EventKey], rec)
	}

	estimator := schedule.NewEstimator(h.matches, h.now)
	for _, eventKey := range order {
		for _, est := range estimator.Estimate(ctx, eventKey, byEvent[eventKey]) {
			dto := QueueEstimateDTO{
				Match:          est.Label,
				MayHaveStarted: est.MayHaveStarted,
				Available:      !est.NotAvailable,
			}
			if !est.NotAvailable && !est.ProjectedStart.IsZero() {
				projected := est.ProjectedStart
				dto.ProjectedStart = &projected
				dto.MinutesUntilStart = est.MinutesUntilStart
			}
			dtos = append(dtos, dto)
		}
	}
	return dtos
}

// toResultDTOs converts processed matches to their transport form.
func toResultDTOs(results []match.Result) []MatchResultDTO {
	dtos := make([]MatchResultDTO, len(results))
	for i, r := range results {
		dtos[i] = MatchResultDTO{
			Event:     r.Event,
			Match:     r.Label,
			Alliance:  string(r.Alliance),
			RedScore:  r.RedScore,
			BlueScore: r.BlueScore,
			Outcome:   string(r.Outcome),
		}
	}
	return dtos
}

// formatWinPercentage renders wins over all played matches as "66.67%", or
// "N/A" when no match has been played. Ties count in the denominator.
func formatWinPercentage(tally match.Tally) string {
	played := tally.Total()
	if played == 0 {
		return notAvailable
	}
	return fmt.Sprintf("%.2f%%", float64(tally.Wins)/float64(played)*100)
}

// formatExternalRank renders the third-party rank, degrading to "N/A".
func formatExternalRank(insights *team.Insights) string {
	if insights == nil || insights.EPARank <= 0 {
		return notAvailable
	}
	return fmt.Sprintf("#%d", insights.EPARank)
}
