package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/312Evan/frcstats/internal/domain/leaderboard"
	"github.com/312Evan/frcstats/internal/domain/match"
	"github.com/312Evan/frcstats/internal/domain/team"
)

type fakeEnumerator struct {
	pages   [][]team.Team
	pageErr error
	calls   int
}

func (f *fakeEnumerator) GetTeamsPage(ctx context.Context, season, page int) ([]team.Team, error) {
	f.calls++
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	if page >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page], nil
}

type fakeMatchSource struct {
	records map[string][]match.Record
	errFor  map[string]error
	calls   int
}

func (f *fakeMatchSource) GetMatchesForTeam(ctx context.Context, teamKey string, season int) ([]match.Record, error) {
	f.calls++
	if err := f.errFor[teamKey]; err != nil {
		return nil, err
	}
	return f.records[teamKey], nil
}

type memoryStore struct {
	snapshot *leaderboard.Snapshot
	writeErr error
	writes   int
}

func (m *memoryStore) Write(ctx context.Context, snapshot *leaderboard.Snapshot) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.snapshot = snapshot
	return nil
}

func (m *memoryStore) Read(ctx context.Context) (*leaderboard.Snapshot, error) {
	if m.snapshot == nil {
		return nil, leaderboard.ErrNoSnapshot
	}
	return m.snapshot, nil
}

// playedMatches builds records for teamKey with the given win/loss/tie line,
// subject team always on red.
func playedMatches(teamKey string, wins, losses, ties int) []match.Record {
	records := make([]match.Record, 0, wins+losses+ties)
	build := func(n, red, blue int) match.Record {
		return match.Record{
			Key:      fmt.Sprintf("2024test_qm%d", n),
			EventKey: "2024test",
			Red:      match.Alliance{Score: red, TeamKeys: []string{teamKey, "frc2", "frc3"}},
			Blue:     match.Alliance{Score: blue, TeamKeys: []string{"frc4", "frc5", "frc6"}},
		}
	}

	n := 1
	for i := 0; i < wins; i++ {
		records = append(records, build(n, 60, 40))
		n++
	}
	for i := 0; i < losses; i++ {
		records = append(records, build(n, 30, 50))
		n++
	}
	for i := 0; i < ties; i++ {
		records = append(records, build(n, 45, 45))
		n++
	}
	return records
}

func testJob(enum *fakeEnumerator, source *fakeMatchSource, store *memoryStore, config GenerateLeaderboardConfig) *GenerateLeaderboardJob {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGenerateLeaderboardJob(enum, source, store, logger, config)
}

func zeroDelayConfig() GenerateLeaderboardConfig {
	return GenerateLeaderboardConfig{
		Season:      2024,
		PacingDelay: 0,
		TopN:        leaderboard.DefaultTopN,
	}
}

func TestGenerateLeaderboard_RanksByRatio(t *testing.T) {
	enum := &fakeEnumerator{pages: [][]team.Team{
		{
			{Key: "frc100", Number: 100, Nickname: "Alpha"},
			{Key: "frc200", Number: 200, Nickname: "Beta"},
		},
		{
			{Key: "frc300", Number: 300, Nickname: "Gamma"},
		},
	}}
	source := &fakeMatchSource{records: map[string][]match.Record{
		"frc100": playedMatches("frc100", 3, 1, 0),
		"frc200": playedMatches("frc200", 2, 2, 0),
		"frc300": nil,
	}}
	store := &memoryStore{}

	job := testJob(enum, source, store, zeroDelayConfig())
	err := job.Run(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, store.writes)

	snapshot := store.snapshot
	assert.Equal(t, 2024, snapshot.Season)
	assert.Equal(t, 3, snapshot.TeamsProcessed)
	assert.Len(t, snapshot.Entries, 3)

	assert.Equal(t, 100, snapshot.Entries[0].TeamNumber)
	assert.Equal(t, 200, snapshot.Entries[1].TeamNumber)
	assert.Equal(t, 300, snapshot.Entries[2].TeamNumber)
	for i, entry := range snapshot.Entries {
		assert.Equal(t, leaderboard.Rank(i+1), entry.Rank)
	}
	assert.Equal(t, 0.75, snapshot.Entries[0].Ratio)
	assert.Equal(t, 0.0, snapshot.Entries[2].Ratio)

	stats := job.LastRunStats()
	assert.NotNil(t, stats)
	assert.Equal(t, 2, stats.PagesFetched)
	assert.Equal(t, 3, stats.TeamsProcessed)
	assert.Equal(t, 0, stats.TeamsSkipped)
}

func TestGenerateLeaderboard_SkipsFailedTeam(t *testing.T) {
	enum := &fakeEnumerator{pages: [][]team.Team{
		{
			{Key: "frc100", Number: 100, Nickname: "Alpha"},
			{Key: "frc200", Number: 200, Nickname: "Beta"},
		},
	}}
	source := &fakeMatchSource{
		records: map[string][]match.Record{
			"frc100": playedMatches("frc100", 1, 0, 0),
		},
		errFor: map[string]error{
			"frc200": errors.New("upstream timeout"),
		},
	}
	store := &memoryStore{}

	job := testJob(enum, source, store, zeroDelayConfig())
	err := job.Run(context.Background())

	assert.NoError(t, err)
	assert.Len(t, store.snapshot.Entries, 1)
	assert.Equal(t, 100, store.snapshot.Entries[0].TeamNumber)

	stats := job.LastRunStats()
	assert.Equal(t, 2, stats.TeamsProcessed)
	assert.Equal(t, 1, stats.TeamsSkipped)
}

func TestGenerateLeaderboard_EnumerationFailureIsFatal(t *testing.T) {
	enum := &fakeEnumerator{pageErr: errors.New("503 from upstream")}
	store := &memoryStore{}

	job := testJob(enum, &fakeMatchSource{}, store, zeroDelayConfig())
	err := job.Run(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 0, store.writes)
}

func TestGenerateLeaderboard_SnapshotWriteFailureIsFatal(t *testing.T) {
	enum := &fakeEnumerator{pages: [][]team.Team{
		{{Key: "frc100", Number: 100, Nickname: "Alpha"}},
	}}
	source := &fakeMatchSource{records: map[string][]match.Record{
		"frc100": playedMatches("frc100", 1, 0, 0),
	}}
	store := &memoryStore{writeErr: errors.New("disk full")}

	job := testJob(enum, source, store, zeroDelayConfig())
	err := job.Run(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "write snapshot")
}

func TestGenerateLeaderboard_TruncatesToTopN(t *testing.T) {
	teams := make([]team.Team, 10)
	records := make(map[string][]match.Record, 10)
	for i := range teams {
		key := fmt.Sprintf("frc%d", i+1)
		teams[i] = team.Team{Key: key, Number: i + 1, Nickname: fmt.Sprintf("Team %d", i+1)}
		records[key] = playedMatches(key, i, 10-i, 0)
	}

	enum := &fakeEnumerator{pages: [][]team.Team{teams}}
	store := &memoryStore{}

	config := zeroDelayConfig()
	config.TopN = 3

	job := testJob(enum, &fakeMatchSource{records: records}, store, config)
	err := job.Run(context.Background())

	assert.NoError(t, err)
	assert.Len(t, store.snapshot.Entries, 3)
	assert.Equal(t, 10, store.snapshot.TeamsProcessed)
	assert.Equal(t, leaderboard.Rank(3), store.snapshot.Entries[2].Rank)
}

func TestGenerateLeaderboard_CancelledContextStopsPass(t *testing.T) {
	enum := &fakeEnumerator{pages: [][]team.Team{
		{{Key: "frc100", Number: 100, Nickname: "Alpha"}},
	}}
	store := &memoryStore{}

	config := zeroDelayConfig()
	config.PacingDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := testJob(enum, &fakeMatchSource{}, store, config)
	err := job.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.writes)
}
