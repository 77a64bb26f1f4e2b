package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func played(key, eventKey string, redScore, blueScore int, redTeams, blueTeams []string) Record {
	return Record{
		Key:      key,
		EventKey: eventKey,
		Red:      Alliance{Score: redScore, TeamKeys: redTeams},
		Blue:     Alliance{Score: blueScore, TeamKeys: blueTeams},
	}
}

func unplayed(key, eventKey string, redTeams, blueTeams []string) Record {
	return played(key, eventKey, UnplayedScore, UnplayedScore, redTeams, blueTeams)
}

var (
	redRoster  = []string{"frc254", "frc1678", "frc604"}
	blueRoster = []string{"frc971", "frc581", "frc100"}
)

func TestProcess_CountersMatchPlayedMatches(t *testing.T) {
	records := []Record{
		played("2024miket_qm1", "2024miket", 50, 40, redRoster, blueRoster),
		played("2024miket_qm2", "2024miket", 30, 60, redRoster, blueRoster),
		played("2024miket_qm3", "2024miket", 45, 45, redRoster, blueRoster),
		unplayed("2024miket_qm4", "2024miket", redRoster, blueRoster),
	}
	events := EventNames{"2024miket": "Kettering University Event"}

	out := Process("frc254", records, events)

	assert.Equal(t, 1, out.Tally.Wins)
	assert.Equal(t, 1, out.Tally.Losses)
	assert.Equal(t, 1, out.Tally.Ties)
	assert.Equal(t, out.Tally.Total(), len(out.Results))
	assert.Equal(t, []int{50, 30, 45}, out.Scores)
}

func TestProcess_UnplayedExcluded(t *testing.T) {
	records := []Record{
		unplayed("2024miket_qm1", "2024miket", redRoster, blueRoster),
		played("2024miket_qm2", "2024miket", UnplayedScore, 30, redRoster, blueRoster),
		played("2024miket_qm3", "2024miket", 30, UnplayedScore, redRoster, blueRoster),
	}

	out := Process("frc254", records, nil)

	assert.Empty(t, out.Results)
	assert.Empty(t, out.Scores)
	assert.Equal(t, 0, out.Tally.Total())
}

func TestProcess_BlueAlliancePerspective(t *testing.T) {
	records := []Record{
		played("2024miket_qm1", "2024miket", 40, 50, redRoster, blueRoster),
	}

	out := Process("frc971", records, nil)

	assert.Equal(t, 1, out.Tally.Wins)
	assert.Equal(t, AllianceBlue, out.Results[0].Alliance)
	assert.Equal(t, 50, out.Results[0].TeamScore)
}

func TestProcess_TieForBothAlliances(t *testing.T) {
	records := []Record{
		played("2024miket_qm1", "2024miket", 45, 45, redRoster, blueRoster),
	}

	redSide := Process("frc254", records, nil)
	blueSide := Process("frc971", records, nil)

	assert.Equal(t, OutcomeTie, redSide.Results[0].Outcome)
	assert.Equal(t, OutcomeTie, blueSide.Results[0].Outcome)
}

func TestProcess_TeamNotInMatchSkipped(t *testing.T) {
	records := []Record{
		played("2024miket_qm1", "2024miket", 50, 40, redRoster, blueRoster),
	}

	out := Process("frc9999", records, nil)

	assert.Empty(t, out.Results)
	assert.Equal(t, 0, out.Tally.Total())
}

func TestProcess_DeterministicOrdering(t *testing.T) {
	records := []Record{
		played("2024txhou_qm2", "2024txhou", 10, 20, redRoster, blueRoster),
		played("2024miket_qm9", "2024miket", 30, 40, redRoster, blueRoster),
		played("2024miket_qm1", "2024miket", 50, 60, redRoster, blueRoster),
	}
	events := EventNames{
		"2024miket": "Kettering",
		"2024txhou": "Houston",
	}

	first := Process("frc254", records, events)
	second := Process("frc254", records, events)

	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, "Houston", first.Results[0].Event)
	assert.Equal(t, "2024miket_qm1", first.Results[1].RawKey)
	assert.Equal(t, "2024miket_qm9", first.Results[2].RawKey)
}

func TestProcess_MissingEventNameFallsBack(t *testing.T) {
	records := []Record{
		played("2024miket_qm1", "2024miket", 50, 40, redRoster, blueRoster),
	}

	out := Process("frc254", records, EventNames{})

	assert.Equal(t, "2024miket", out.Results[0].Event)
}

func TestUpcoming(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	future := unplayed("2024miket_qm5", "2024miket", redRoster, blueRoster)
	future.PredictedTime = now.Add(30 * time.Minute)
	past := unplayed("2024miket_qm4", "2024miket", redRoster, blueRoster)
	past.PredictedTime = now.Add(-time.Hour)
	done := played("2024miket_qm1", "2024miket", 50, 40, redRoster, blueRoster)
	noTime := unplayed("2024miket_qm6", "2024miket", redRoster, blueRoster)

	got := Upcoming([]Record{done, past, future, noTime}, now)

	assert.Len(t, got, 2)
	assert.Equal(t, "2024miket_qm5", got[0].Key)
	assert.Equal(t, "2024miket_qm6", got[1].Key)
}
