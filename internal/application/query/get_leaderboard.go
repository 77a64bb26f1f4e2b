package query

import (
	"context"
	"errors"
	"time"

	"github.com/312Evan/frcstats/internal/domain/leaderboard"
	"github.com/312Evan/frcstats/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Reads the most recent persisted leaderboard snapshot. The read path never
// touches the upstream API; the batch job owns snapshot generation.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery asks for the current leaderboard snapshot.
type GetLeaderboardQuery struct {
	// Limit caps the number of entries returned (default and maximum is the
	// snapshot's full length).
	Limit int
}

// Validate checks the query parameters.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}

// LeaderboardEntryDTO is one ranked team in the leaderboard.
type LeaderboardEntryDTO struct {
	// Rank is the 1-based position, dense with no gaps.
	Rank int `json:"rank"`

	// TeamNumber identifies the team.
	TeamNumber int `json:"team_number"`

	// Nickname is the team's display name.
	Nickname string `json:"nickname,omitempty"`

	// Record is the season record as "W-L-T".
	Record string `json:"record"`

	// Ratio is wins over decided matches, 0 with no decided matches.
	Ratio float64 `json:"ratio"`

	// MatchesPlayed is the number of played matches counted.
	MatchesPlayed int `json:"matches_played"`
}

// GetLeaderboardResult is the snapshot in transport form.
type GetLeaderboardResult struct {
	// Entries are the ranked teams, best ratio first.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// Season the snapshot was generated for.
	Season int `json:"season"`

	// GeneratedAt is when the batch job produced the snapshot.
	GeneratedAt time.Time `json:"generated_at"`

	// TeamsProcessed is how many teams the batch job evaluated.
	TeamsProcessed int `json:"teams_processed"`
}

// GetLeaderboardHandler serves leaderboard reads from the snapshot store.
type GetLeaderboardHandler struct {
	store leaderboard.SnapshotStore
}

// NewGetLeaderboardHandler creates the handler.
func NewGetLeaderboardHandler(store leaderboard.SnapshotStore) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{store: store}
}

// Handle reads the latest snapshot. Before the first batch run completes
// there is no snapshot; that reads as a not-found error, not a failure.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	snapshot, err := h.store.Read(ctx)
	if err != nil {
		if errors.Is(err, leaderboard.ErrNoSnapshot) {
			return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrNotFound,
				"leaderboard not yet available", err)
		}
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrUpstreamUnavailable,
			"failed to read leaderboard snapshot", err)
	}

	entries := snapshot.Entries
	if query.Limit > 0 && query.Limit < len(entries) {
		entries = entries[:query.Limit]
	}

	dtos := make([]LeaderboardEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = LeaderboardEntryDTO{
			Rank:          int(e.Rank),
			TeamNumber:    e.TeamNumber,
			Nickname:      e.Nickname,
			Record:        e.Record(),
			Ratio:         e.Ratio,
			MatchesPlayed: e.MatchesPlayed,
		}
	}

	return &GetLeaderboardResult{
		Entries:        dtos,
		Season:         snapshot.Season,
		GeneratedAt:    snapshot.GeneratedAt,
		TeamsProcessed: snapshot.TeamsProcessed,
	}, nil
}
