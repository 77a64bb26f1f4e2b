package predict

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/312Evan/frcstats/internal/domain/match"
	"github.com/312Evan/frcstats/internal/domain/shared"
)

func TestForMatch_PredictsHigherMedian(t *testing.T) {
	source := newFakeSource()
	source.set("frc1", 60)
	source.set("frc2", 60)
	source.set("frc3", 60)
	source.set("frc4", 30)
	source.set("frc5", 30)
	source.set("frc6", 30)
	cache := NewTeamMedianCache(source, 2024)

	rec := match.Record{
		Key:  "2024miket_qm7",
		Red:  match.Alliance{Score: match.UnplayedScore, TeamKeys: []string{"frc1", "frc2", "frc3"}},
		Blue: match.Alliance{Score: match.UnplayedScore, TeamKeys: []string{"frc4", "frc5", "frc6"}},
	}

	p, err := ForMatch(context.Background(), cache, rec)
	assert.NoError(t, err)
	assert.Equal(t, match.AllianceRed, p.Winner)
	assert.Equal(t, 60.0, p.RedMedian)
	assert.Equal(t, 30.0, p.BlueMedian)
	assert.Equal(t, "Miket Qualifier 7", p.Label)
	assert.Equal(t, "frc1, frc2, frc3", p.RedTeams)
	assert.Equal(t, "frc4, frc5, frc6", p.BlueTeams)
}

func TestForMatch_TieBreaksToBlue(t *testing.T) {
	source := newFakeSource()
	for _, team := range []string{"frc1", "frc2", "frc3", "frc4", "frc5", "frc6"} {
		source.set(team, 50)
	}
	cache := NewTeamMedianCache(source, 2024)

	rec := match.Record{
		Key:  "2024miket_qm8",
		Red:  match.Alliance{Score: match.UnplayedScore, TeamKeys: []string{"frc1", "frc2", "frc3"}},
		Blue: match.Alliance{Score: match.UnplayedScore, TeamKeys: []string{"frc4", "frc5", "frc6"}},
	}

	p, err := ForMatch(context.Background(), cache, rec)
	assert.NoError(t, err)
	assert.Equal(t, match.AllianceBlue, p.Winner)
}

func TestForMatchup_WinProbability(t *testing.T) {
	source := newFakeSource()
	source.set("frc1", 60)
	source.set("frc2", 60)
	source.set("frc3", 60)
	source.set("frc4", 30)
	source.set("frc5", 30)
	source.set("frc6", 30)
	cache := NewTeamMedianCache(source, 2024)

	m, err := ForMatchup(context.Background(), cache,
		[]string{"frc1", "frc2", "frc3"},
		[]string{"frc4", "frc5", "frc6"},
	)
	assert.NoError(t, err)
	assert.Equal(t, match.AllianceRed, m.Winner)
	// round(60 / 90 * 100) = 67
	assert.Equal(t, 67, m.WinProbability)
}

func TestForMatchup_ZeroMediansFail(t *testing.T) {
	source := newFakeSource()
	cache := NewTeamMedianCache(source, 2024)

	_, err := ForMatchup(context.Background(), cache,
		[]string{"frc1", "frc2", "frc3"},
		[]string{"frc4", "frc5", "frc6"},
	)
	assert.Error(t, err)
	assert.True(t, shared.IsInsufficientData(err))
}

func TestForMatchup_DeduplicatesSharedTeams(t *testing.T) {
	source := newFakeSource()
	for _, team := range []string{"frc1", "frc2", "frc3", "frc4", "frc5"} {
		source.set(team, 40)
	}
	cache := NewTeamMedianCache(source, 2024)

	_, err := ForMatchup(context.Background(), cache,
		[]string{"frc1", "frc2", "frc3"},
		[]string{"frc1", "frc4", "frc5"},
	)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), source.fetchCount("frc1"))
}
