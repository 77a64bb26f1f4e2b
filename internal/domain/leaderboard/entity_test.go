package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustEntry(t *testing.T, team int, wins, losses, ties int) *Entry {
	t.Helper()
	entry, err := NewEntry(team, "Team", wins, losses, ties)
	assert.NoError(t, err)
	return entry
}

func TestNewEntry_Ratio(t *testing.T) {
	entry := mustEntry(t, 254, 3, 1, 0)
	assert.Equal(t, 0.75, entry.Ratio)
	assert.Equal(t, 4, entry.MatchesPlayed)
}

func TestNewEntry_ZeroDecidedMatches(t *testing.T) {
	entry := mustEntry(t, 254, 0, 0, 2)
	assert.Equal(t, 0.0, entry.Ratio)
	assert.Equal(t, 2, entry.MatchesPlayed)
}

func TestNewEntry_InvalidTeamNumber(t *testing.T) {
	_, err := NewEntry(0, "Nope", 1, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidTeamNumber)
}

func TestRanking_SortAssignsDenseRanks(t *testing.T) {
	ranking := NewRanking()
	assert.NoError(t, ranking.Add(mustEntry(t, 100, 3, 1, 0))) // ratio 0.75
	assert.NoError(t, ranking.Add(mustEntry(t, 200, 2, 2, 0))) // ratio 0.50
	assert.NoError(t, ranking.Add(mustEntry(t, 300, 0, 0, 0))) // ratio 0

	ranking.Sort()
	top := ranking.Top(10)

	assert.Len(t, top, 3)
	assert.Equal(t, 100, top[0].TeamNumber)
	assert.Equal(t, 200, top[1].TeamNumber)
	assert.Equal(t, 300, top[2].TeamNumber)
	for i, entry := range top {
		assert.Equal(t, Rank(i+1), entry.Rank)
	}
}

func TestRanking_TieBreaksByWinsThenTeamNumber(t *testing.T) {
	ranking := NewRanking()
	assert.NoError(t, ranking.Add(mustEntry(t, 900, 2, 2, 0))) // ratio 0.50, 2 wins
	assert.NoError(t, ranking.Add(mustEntry(t, 100, 2, 2, 0))) // ratio 0.50, 2 wins
	assert.NoError(t, ranking.Add(mustEntry(t, 500, 4, 4, 0))) // ratio 0.50, 4 wins

	ranking.Sort()
	top := ranking.Top(3)

	assert.Equal(t, 500, top[0].TeamNumber)
	assert.Equal(t, 100, top[1].TeamNumber)
	assert.Equal(t, 900, top[2].TeamNumber)
}

func TestRanking_TruncationCapsLength(t *testing.T) {
	ranking := NewRanking()
	for team := 1; team <= 20; team++ {
		assert.NoError(t, ranking.Add(mustEntry(t, team, team, 1, 0)))
	}

	ranking.Sort()
	top := ranking.Top(5)

	assert.Len(t, top, 5)
	assert.Equal(t, Rank(1), top[0].Rank)
	assert.Equal(t, Rank(5), top[4].Rank)
	assert.Equal(t, 20, ranking.Count())
}

func TestRanking_DuplicateTeamRejected(t *testing.T) {
	ranking := NewRanking()
	assert.NoError(t, ranking.Add(mustEntry(t, 254, 1, 0, 0)))
	assert.ErrorIs(t, ranking.Add(mustEntry(t, 254, 2, 0, 0)), ErrDuplicateTeam)
}

func TestSnapshot_EncodeDecode(t *testing.T) {
	ranking := NewRanking()
	assert.NoError(t, ranking.Add(mustEntry(t, 254, 3, 1, 0)))
	ranking.Sort()

	snapshot := NewSnapshot("run-1", 2024, ranking, DefaultTopN)
	data, err := snapshot.Encode()
	assert.NoError(t, err)

	decoded, err := DecodeSnapshot(data)
	assert.NoError(t, err)
	assert.Equal(t, "run-1", decoded.ID)
	assert.Equal(t, 2024, decoded.Season)
	assert.Len(t, decoded.Entries, 1)
	assert.Equal(t, 254, decoded.Entries[0].TeamNumber)
}

func TestEntry_Record(t *testing.T) {
	entry := mustEntry(t, 254, 12, 3, 1)
	assert.Equal(t, "12-3-1", entry.Record())
}
