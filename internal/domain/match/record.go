// Package match contains the core match domain model: raw match records as
// fetched from the upstream competition-data source, the match key formatter,
// and the result processor that turns raw records into per-team statistics.
package match

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// UnplayedScore is the sentinel score the upstream reports for an alliance
// whose match has not been played yet.
const UnplayedScore = -1

// AllianceColor identifies one of the two alliances in a match.
type AllianceColor string

const (
	AllianceRed  AllianceColor = "Red"
	AllianceBlue AllianceColor = "Blue"
)

// Outcome classifies a played match from the subject team's perspective.
type Outcome string

const (
	OutcomeWin  Outcome = "Win"
	OutcomeLoss Outcome = "Loss"
	OutcomeTie  Outcome = "Tie"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Alliance is one side of a match: a score and the three member team keys.
// Score is UnplayedScore until the match has been played.
type Alliance struct {
	Score    int
	TeamKeys []string
}

// Contains reports whether the alliance roster includes the given team key.
func (a Alliance) Contains(teamKey string) bool {
	for _, k := range a.TeamKeys {
		if k == teamKey {
			return true
		}
	}
	return false
}

// Record is a raw match record as returned by the upstream match-data source.
// It is read-only input; derived types never mutate it.
type Record struct {
	// Key is the opaque match identifier, e.g. "2024miket_qm12".
	Key string

	// EventKey identifies the event the match belongs to.
	EventKey string

	// MatchNumber is the match's number within its competition level.
	MatchNumber int

	// Red and Blue are the two competing alliances.
	Red  Alliance
	Blue Alliance

	// ActualTime is when the match actually completed (zero if unknown).
	ActualTime time.Time

	// PredictedTime is the upstream's own start-time prediction (zero if unknown).
	PredictedTime time.Time

	// ScheduledTime is the originally scheduled start time (zero if unknown).
	ScheduledTime time.Time
}

// IsPlayed reports whether both alliances have a recorded score.
// A score of UnplayedScore on either side means the match has not been played.
func (r Record) IsPlayed() bool {
	return r.Red.Score != UnplayedScore && r.Blue.Score != UnplayedScore
}

// AllianceOf returns which alliance the team belongs to, or false if the
// team is not in this match.
func (r Record) AllianceOf(teamKey string) (AllianceColor, bool) {
	if r.Red.Contains(teamKey) {
		return AllianceRed, true
	}
	if r.Blue.Contains(teamKey) {
		return AllianceBlue, true
	}
	return "", false
}

// ScoreFor returns the score of the alliance the team belongs to.
// Returns 0 if the team is not in this match.
func (r Record) ScoreFor(teamKey string) int {
	switch color, ok := r.AllianceOf(teamKey); {
	case !ok:
		return 0
	case color == AllianceRed:
		return r.Red.Score
	default:
		return r.Blue.Score
	}
}

// StartTime returns the best known start time for the match: the upstream's
// prediction if present, otherwise the scheduled time. Zero if neither is set.
func (r Record) StartTime() time.Time {
	if !r.PredictedTime.IsZero() {
		return r.PredictedTime
	}
	return r.ScheduledTime
}
