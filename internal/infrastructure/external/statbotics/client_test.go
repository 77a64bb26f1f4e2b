package statbotics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/312Evan/frcstats/internal/domain/shared"
	"github.com/312Evan/frcstats/pkg/circuitbreaker"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultClientConfig()
	config.BaseURL = server.URL
	return NewClient(config)
}

func TestGetTeamInsights(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/team_year/254/2024", r.URL.Path)
		w.Write([]byte(`{
			"team": 254,
			"year": 2024,
			"epa": {"total_points": {"mean": 72.4}, "ranks": {"total": {"rank": 3}}},
			"record": {"wins": 52, "losses": 6}
		}`))
	}))

	insights, err := client.GetTeamInsights(context.Background(), "frc254", 2024)

	assert.NoError(t, err)
	assert.Equal(t, 72.4, insights.EPA)
	assert.Equal(t, 3, insights.EPARank)
	assert.Equal(t, 52, insights.Wins)
	assert.Equal(t, 6, insights.Losses)
}

func TestGetTeamInsights_InvalidKey(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an invalid key")
	}))

	_, err := client.GetTeamInsights(context.Background(), "bogus", 2024)

	assert.Error(t, err)
	assert.True(t, shared.IsParse(err))
}

func TestGetTeamInsights_NotFound(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.GetTeamInsights(context.Background(), "frc254", 2024)

	assert.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestGetTeamInsights_BreakerOpensAfterFailures(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for i := 0; i < 3; i++ {
		_, err := client.GetTeamInsights(context.Background(), "frc254", 2024)
		assert.Error(t, err)
	}

	_, err := client.GetTeamInsights(context.Background(), "frc254", 2024)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
}
