// Package jobs contains the scheduled job implementations.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/312Evan/frcstats/internal/domain/leaderboard"
	"github.com/312Evan/frcstats/internal/domain/match"
	"github.com/312Evan/frcstats/internal/domain/team"
	"github.com/312Evan/frcstats/pkg/metrics"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// TeamEnumerator pages through the season's team registry. An empty page
// terminates the enumeration.
type TeamEnumerator interface {
	GetTeamsPage(ctx context.Context, season, page int) ([]team.Team, error)
}

// MatchSource fetches one team's season matches.
type MatchSource interface {
	GetMatchesForTeam(ctx context.Context, teamKey string, season int) ([]match.Record, error)
}

// GenerateLeaderboardJob runs the full-league batch pass: enumerate every
// team in the season, fetch and process each team's matches, rank by
// win/loss ratio, truncate, and persist the snapshot.
//
// The pass runs strictly sequentially with a pacing delay between upstream
// calls. The data source enforces a request-rate ceiling, and a daily batch
// has no deadline worth violating it for.
type GenerateLeaderboardJob struct {
	teams   TeamEnumerator
	matches MatchSource
	store   leaderboard.SnapshotStore
	logger  *slog.Logger
	config  GenerateLeaderboardConfig

	lastRunStats atomic.Value // *RunStats
}

// GenerateLeaderboardConfig contains configuration for the batch pass.
type GenerateLeaderboardConfig struct {
	// Season is the competition year to rank. Zero means the current year.
	Season int

	// PacingDelay is the fixed delay between successive upstream fetches.
	PacingDelay time.Duration

	// TopN is how many entries the persisted snapshot keeps.
	TopN int

	// Timeout bounds one full pass. Zero means no bound.
	Timeout time.Duration
}

// DefaultGenerateLeaderboardConfig returns sensible defaults.
func DefaultGenerateLeaderboardConfig() GenerateLeaderboardConfig {
	return GenerateLeaderboardConfig{
		PacingDelay: 2 * time.Second,
		TopN:        leaderboard.DefaultTopN,
		Timeout:     4 * time.Hour,
	}
}

// RunStats contains statistics from one batch pass.
type RunStats struct {
	RunID          string
	Season         int
	StartedAt      time.Time
	CompletedAt    time.Time
	Duration       time.Duration
	PagesFetched   int
	TeamsProcessed int
	TeamsSkipped   int
	EntriesRanked  int
}

// NewGenerateLeaderboardJob creates the batch job.
func NewGenerateLeaderboardJob(
	teams TeamEnumerator,
	matches MatchSource,
	store leaderboard.SnapshotStore,
	logger *slog.Logger,
	config GenerateLeaderboardConfig,
) *GenerateLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TopN <= 0 {
		config.TopN = leaderboard.DefaultTopN
	}

	return &GenerateLeaderboardJob{
		teams:   teams,
		matches: matches,
		store:   store,
		logger:  logger,
		config:  config,
	}
}

// Name returns the job name.
func (j *GenerateLeaderboardJob) Name() string {
	return "generate_leaderboard"
}

// Description returns a human-readable description.
func (j *GenerateLeaderboardJob) Description() string {
	return "Ranks every team in the season by win/loss ratio and persists the top-N snapshot"
}

// Run executes one batch pass. A single team's fetch failure is logged and
// skipped; a failure to enumerate teams or to write the snapshot fails the
// whole run. The previous snapshot stays servable either way.
func (j *GenerateLeaderboardJob) Run(ctx context.Context) error {
	season := j.config.Season
	if season == 0 {
		season = time.Now().UTC().Year()
	}

	stats := &RunStats{
		RunID:     uuid.New().String(),
		Season:    season,
		StartedAt: time.Now(),
	}

	j.logger.Info("starting leaderboard pass",
		"run_id", stats.RunID,
		"season", season,
		"pacing_delay", j.config.PacingDelay.String(),
	)

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	ranking := leaderboard.NewRanking()

	for page := 0; ; page++ {
		teams, err := j.teams.GetTeamsPage(ctx, season, page)
		if err != nil {
			metrics.RecordLeaderboardPassFailure()
			return fmt.Errorf("enumerate teams, page %d: %w", page, err)
		}
		if len(teams) == 0 {
			break
		}
		stats.PagesFetched++

		j.logger.Info("processing team page",
			"run_id", stats.RunID,
			"page", page,
			"teams", len(teams),
		)

		for _, t := range teams {
			if err := j.pace(ctx); err != nil {
				return err
			}

			stats.TeamsProcessed++
			if err := j.processTeam(ctx, t, season, ranking); err != nil {
				stats.TeamsSkipped++
				j.logger.Warn("skipping team after fetch failure",
					"run_id", stats.RunID,
					"team", t.Key,
					"error", err,
				)
			}
		}

		if err := j.pace(ctx); err != nil {
			return err
		}
	}

	ranking.Sort()
	stats.EntriesRanked = ranking.Count()

	snapshot := leaderboard.NewSnapshot(stats.RunID, season, ranking, j.config.TopN)
	if err := j.store.Write(ctx, snapshot); err != nil {
		metrics.RecordLeaderboardPassFailure()
		return fmt.Errorf("write snapshot: %w", err)
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
	j.lastRunStats.Store(stats)

	metrics.RecordLeaderboardPass(stats.Duration.Seconds(), len(snapshot.Entries), stats.TeamsSkipped)
	metrics.UpdateSnapshotTimestamp(snapshot.GeneratedAt.Unix())

	j.logger.Info("leaderboard pass completed",
		"run_id", stats.RunID,
		"duration", stats.Duration.String(),
		"pages", stats.PagesFetched,
		"teams_processed", stats.TeamsProcessed,
		"teams_skipped", stats.TeamsSkipped,
		"entries_persisted", len(snapshot.Entries),
	)

	return nil
}

// processTeam fetches one team's matches and adds its entry to the ranking.
func (j *GenerateLeaderboardJob) processTeam(ctx context.Context, t team.Team, season int, ranking *leaderboard.Ranking) error {
	records, err := j.matches.GetMatchesForTeam(ctx, t.Key, season)
	if err != nil {
		return err
	}

	processed := match.Process(t.Key, records, nil)
	tally := processed.Tally

	entry, err := leaderboard.NewEntry(t.Number, t.Nickname, tally.Wins, tally.Losses, tally.Ties)
	if err != nil {
		return err
	}

	return ranking.Add(entry)
}

// pace sleeps for the configured pacing delay, honoring cancellation.
func (j *GenerateLeaderboardJob) pace(ctx context.Context) error {
	if j.config.PacingDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(j.config.PacingDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LastRunStats returns statistics from the last completed pass, or nil.
func (j *GenerateLeaderboardJob) LastRunStats() *RunStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RunStats)
}
