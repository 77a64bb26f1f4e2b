package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/312Evan/frcstats/internal/application/query"
	"github.com/312Evan/frcstats/internal/domain/leaderboard"
	"github.com/312Evan/frcstats/internal/domain/match"
	"github.com/312Evan/frcstats/internal/domain/team"
)

type stubMatchData struct {
	matches map[string][]match.Record
}

func (s *stubMatchData) GetMatchesForTeam(ctx context.Context, teamKey string, season int) ([]match.Record, error) {
	return s.matches[teamKey], nil
}

func (s *stubMatchData) GetMatchesForEvent(ctx context.Context, eventKey string) ([]match.Record, error) {
	return nil, nil
}

func (s *stubMatchData) GetEventsForTeam(ctx context.Context, teamKey string, season int) ([]match.Event, error) {
	return nil, nil
}

func (s *stubMatchData) GetTeam(ctx context.Context, teamKey string) (*team.Team, error) {
	number, err := team.ParseKey(teamKey)
	if err != nil {
		return nil, err
	}
	return &team.Team{Key: teamKey, Number: number}, nil
}

func (s *stubMatchData) GetYearsParticipated(ctx context.Context, teamKey string) ([]int, error) {
	return []int{2024}, nil
}

type stubInsights struct{}

func (s *stubInsights) GetTeamInsights(ctx context.Context, teamKey string, season int) (*team.Insights, error) {
	return &team.Insights{EPARank: 1}, nil
}

type stubSnapshotStore struct {
	snapshot *leaderboard.Snapshot
}

func (s *stubSnapshotStore) Write(ctx context.Context, snapshot *leaderboard.Snapshot) error {
	s.snapshot = snapshot
	return nil
}

func (s *stubSnapshotStore) Read(ctx context.Context) (*leaderboard.Snapshot, error) {
	if s.snapshot == nil {
		return nil, leaderboard.ErrNoSnapshot
	}
	return s.snapshot, nil
}

func testServer(t *testing.T, store *stubSnapshotStore) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	matches := &stubMatchData{matches: map[string][]match.Record{}}

	config := DefaultConfig()
	config.RateLimitPerMinute = 0

	return NewServer(config, Dependencies{
		TeamReviewHandler:     query.NewTeamReviewHandler(matches, &stubInsights{}, logger),
		PredictMatchHandler:   query.NewPredictMatchHandler(matches, logger),
		GetLeaderboardHandler: query.NewGetLeaderboardHandler(store),
		Logger:                logger,
	})
}

func doRequest(t *testing.T, server *Server, method, path, body string) (*httptest.ResponseRecorder, JSONResponse) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	var response JSONResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return rec, response
}

func TestServer_Root(t *testing.T) {
	server := testServer(t, &stubSnapshotStore{})

	rec, response := doRequest(t, server, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, response.Success)
}

func TestServer_Health(t *testing.T) {
	server := testServer(t, &stubSnapshotStore{})

	rec, response := doRequest(t, server, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, response.Success)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_LeaderboardNotYetAvailable(t *testing.T) {
	server := testServer(t, &stubSnapshotStore{})

	rec, response := doRequest(t, server, http.MethodGet, "/api/v1/leaderboard", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, response.Success)
	assert.Equal(t, "not_found", response.Error.Code)
}

func TestServer_LeaderboardServesSnapshot(t *testing.T) {
	ranking := leaderboard.NewRanking()
	entry, err := leaderboard.NewEntry(254, "The Cheesy Poofs", 10, 2, 0)
	assert.NoError(t, err)
	assert.NoError(t, ranking.Add(entry))
	ranking.Sort()

	store := &stubSnapshotStore{
		snapshot: leaderboard.NewSnapshot("run-1", 2024, ranking, leaderboard.DefaultTopN),
	}
	server := testServer(t, store)

	rec, response := doRequest(t, server, http.MethodGet, "/api/v1/leaderboard", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, response.Success)
}

func TestServer_PredictRejectsBadRoster(t *testing.T) {
	server := testServer(t, &stubSnapshotStore{})

	rec, response := doRequest(t, server, http.MethodPost, "/api/v1/predict",
		`{"red_teams": ["frc254"], "blue_teams": ["frc971", "frc581", "frc100"], "season": 2024}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", response.Error.Code)
}

func TestServer_PredictRejectsMalformedJSON(t *testing.T) {
	server := testServer(t, &stubSnapshotStore{})

	rec, response := doRequest(t, server, http.MethodPost, "/api/v1/predict", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", response.Error.Code)
}

func TestServer_TeamReviewValidatesKey(t *testing.T) {
	server := testServer(t, &stubSnapshotStore{})

	rec, response := doRequest(t, server, http.MethodGet, "/api/v1/teams/bogus/review", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", response.Error.Code)
}

func TestServer_TeamReviewAcceptsBareNumber(t *testing.T) {
	server := testServer(t, &stubSnapshotStore{})

	rec, response := doRequest(t, server, http.MethodGet, "/api/v1/teams/254/review?season=2024", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, response.Success)
}
