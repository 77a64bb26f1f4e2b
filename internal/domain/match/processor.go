package match

import (
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH RESULT PROCESSOR
// ══════════════════════════════════════════════════════════════════════════════

// Result is one enriched, played match from the subject team's perspective.
// Immutable once built; discarded after the enclosing request or batch pass.
type Result struct {
	// Event is the display name of the event the match was played at.
	Event string

	// Label is the formatted match label, e.g. "Miket Qualifier 12".
	Label string

	// RawKey is the original match key, retained for stable re-sorting.
	RawKey string

	// RedScore and BlueScore are the final alliance scores.
	RedScore  int
	BlueScore int

	// Outcome is Win/Loss/Tie for the subject team.
	Outcome Outcome

	// Alliance is the alliance the subject team belonged to.
	Alliance AllianceColor

	// TeamScore is the subject team's alliance score.
	TeamScore int
}

// Tally holds the aggregated win/loss/tie counters over processed matches.
type Tally struct {
	Wins   int
	Losses int
	Ties   int
}

// Decided returns the number of matches with a decisive outcome.
func (t Tally) Decided() int {
	return t.Wins + t.Losses
}

// Total returns the number of processed matches.
func (t Tally) Total() int {
	return t.Wins + t.Losses + t.Ties
}

// Processed is the output of one processing pass over a team's matches.
type Processed struct {
	// Results are the enriched matches, sorted by event name then raw key.
	Results []Result

	// Scores are the subject team's alliance scores, one per played match,
	// in processing order. Used for median computation.
	Scores []int

	// Tally aggregates outcomes across all processed matches.
	Tally Tally
}

// EventNames maps event keys to display names. Missing events fall back to
// the raw event key so a failed lookup degrades rather than fails.
type EventNames map[string]string

// Process filters out unplayed matches, classifies each remaining match from
// the subject team's perspective, and aggregates win/loss/tie counters.
//
// Equal alliance scores classify as a Tie regardless of alliance. Matches the
// team did not play in are skipped. The result list is sorted by event name,
// ties broken by the raw match key, so repeated runs over the same input
// produce an identical sequence.
func Process(teamKey string, records []Record, events EventNames) Processed {
	out := Processed{
		Results: make([]Result, 0, len(records)),
		Scores:  make([]int, 0, len(records)),
	}

	for _, rec := range records {
		if !rec.IsPlayed() {
			continue
		}

		color, ok := rec.AllianceOf(teamKey)
		if !ok {
			continue
		}

		teamScore := rec.Red.Score
		oppScore := rec.Blue.Score
		if color == AllianceBlue {
			teamScore, oppScore = oppScore, teamScore
		}

		var outcome Outcome
		switch {
		case teamScore > oppScore:
			outcome = OutcomeWin
			out.Tally.Wins++
		case teamScore < oppScore:
			outcome = OutcomeLoss
			out.Tally.Losses++
		default:
			outcome = OutcomeTie
			out.Tally.Ties++
		}

		eventName, ok := events[rec.EventKey]
		if !ok {
			eventName = rec.EventKey
		}

		label, err := FormatKey(rec.Key)
		if err != nil {
			// A malformed key is fatal to that one label only.
			label = rec.Key
		}

		out.Scores = append(out.Scores, teamScore)
		out.Results = append(out.Results, Result{
			Event:     eventName,
			Label:     label,
			RawKey:    rec.Key,
			RedScore:  rec.Red.Score,
			BlueScore: rec.Blue.Score,
			Outcome:   outcome,
			Alliance:  color,
			TeamScore: teamScore,
		})
	}

	sort.SliceStable(out.Results, func(i, j int) bool {
		if out.Results[i].Event != out.Results[j].Event {
			return out.Results[i].Event < out.Results[j].Event
		}
		return out.Results[i].RawKey < out.Results[j].RawKey
	})

	return out
}

// Upcoming returns the matches that are still unplayed and projected to
// start after now, in the order they appear in the input.
func Upcoming(records []Record, now time.Time) []Record {
	future := make([]Record, 0)
	for _, rec := range records {
		if rec.IsPlayed() {
			continue
		}
		start := rec.StartTime()
		if start.IsZero() || start.After(now) {
			future = append(future, rec)
		}
	}
	return future
}
