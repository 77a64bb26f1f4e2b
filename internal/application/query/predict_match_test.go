package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/312Evan/frcstats/internal/domain/match"
	"github.com/312Evan/frcstats/internal/domain/shared"
)

func scoredRecords(teamKey string, scores ...int) []match.Record {
	records := make([]match.Record, len(scores))
	for i, score := range scores {
		records[i] = match.Record{
			Key:  "2024test_qm1",
			Red:  match.Alliance{Score: score, TeamKeys: []string{teamKey}},
			Blue: match.Alliance{Score: 0, TeamKeys: []string{"frc9999"}},
		}
	}
	return records
}

func TestPredictMatch_ForecastsWinner(t *testing.T) {
	source := newFakeMatchData()
	for _, key := range []string{"frc1", "frc2", "frc3"} {
		source.teamMatches[seasonKey(key, 2024)] = scoredRecords(key, 60)
	}
	for _, key := range []string{"frc4", "frc5", "frc6"} {
		source.teamMatches[seasonKey(key, 2024)] = scoredRecords(key, 30)
	}

	handler := NewPredictMatchHandler(source, quietLogger())
	result, err := handler.Handle(context.Background(), PredictMatchQuery{
		RedTeams:  []string{"frc1", "frc2", "frc3"},
		BlueTeams: []string{"frc4", "frc5", "frc6"},
		Season:    2024,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Red", result.PredictedWinner)
	assert.Equal(t, 60.0, result.RedMedian)
	assert.Equal(t, 30.0, result.BlueMedian)
	assert.Equal(t, 67, result.WinProbability)
	assert.Equal(t, 2024, result.Season)
}

func TestPredictMatch_ZeroMediansFail(t *testing.T) {
	handler := NewPredictMatchHandler(newFakeMatchData(), quietLogger())

	_, err := handler.Handle(context.Background(), PredictMatchQuery{
		RedTeams:  []string{"frc1", "frc2", "frc3"},
		BlueTeams: []string{"frc4", "frc5", "frc6"},
		Season:    2024,
	})

	assert.Error(t, err)
	assert.True(t, shared.IsInsufficientData(err))
}

func TestPredictMatch_UpstreamFailure(t *testing.T) {
	source := newFakeMatchData()
	source.teamMatchesErr = errors.New("connection refused")

	handler := NewPredictMatchHandler(source, quietLogger())
	_, err := handler.Handle(context.Background(), PredictMatchQuery{
		RedTeams:  []string{"frc1", "frc2", "frc3"},
		BlueTeams: []string{"frc4", "frc5", "frc6"},
		Season:    2024,
	})

	assert.Error(t, err)
	assert.True(t, shared.IsUpstream(err))
}

func TestPredictMatch_ValidatesRosters(t *testing.T) {
	handler := NewPredictMatchHandler(newFakeMatchData(), quietLogger())

	cases := []PredictMatchQuery{
		{RedTeams: []string{"frc1", "frc2"}, BlueTeams: []string{"frc4", "frc5", "frc6"}},
		{RedTeams: []string{"frc1", "frc2", "frc3"}, BlueTeams: []string{"frc4", "frc5"}},
		{RedTeams: []string{"frc1", "frc2", "bogus"}, BlueTeams: []string{"frc4", "frc5", "frc6"}},
		{RedTeams: []string{"frc1", "frc2", "frc3"}, BlueTeams: []string{"frc4", "frc5", "frc6"}, Season: -1},
	}
	for _, query := range cases {
		_, err := handler.Handle(context.Background(), query)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	}
}
