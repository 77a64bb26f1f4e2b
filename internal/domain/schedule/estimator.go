// Package schedule implements the queue time estimator: projecting start
// times for upcoming matches at one event from historical inter-match pacing.
package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/312Evan/frcstats/internal/domain/match"
	"github.com/312Evan/frcstats/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUEUE TIME ESTIMATOR
// ══════════════════════════════════════════════════════════════════════════════

// MinPacingInterval is the floor on the estimated pacing interval. Matches
// cannot realistically complete faster than this.
const MinPacingInterval = 20 * time.Second

// Estimate is the projected start for one future match. Transient.
type Estimate struct {
	// Label is the formatted match label.
	Label string

	// MinutesUntilStart is the projected wall-clock minutes until the match
	// starts. Meaningless when MayHaveStarted or NotAvailable is set.
	MinutesUntilStart int

	// ProjectedStart is the projected start time.
	ProjectedStart time.Time

	// MayHaveStarted is set when the projection lies in the past.
	MayHaveStarted bool

	// NotAvailable is set when no estimate could be computed for this match.
	NotAvailable bool
}

// EventMatchSource provides all matches at one event. Satisfied by the
// upstream match-data client.
type EventMatchSource interface {
	GetMatchesForEvent(ctx context.Context, eventKey string) ([]match.Record, error)
}

// Estimator projects start times for upcoming matches at a single event.
type Estimator struct {
	source EventMatchSource
	now    func() time.Time
}

// NewEstimator creates an estimator. The now function defaults to time.Now
// and is injectable for tests.
func NewEstimator(source EventMatchSource, now func() time.Time) *Estimator {
	if now == nil {
		now = time.Now
	}
	return &Estimator{source: source, now: now}
}

// Estimate projects start times for the given future matches at one event.
//
// It fetches the event's match history, computes the median of consecutive
// completion deltas as the pacing interval (floored at MinPacingInterval),
// anchors on the most recently completed match of the same competition
// level, and projects each future match by its match-number offset from the
// anchor. On upstream failure it degrades gracefully: every match gets a
// "not available" estimate and no error propagates to the caller.
func (e *Estimator) Estimate(ctx context.Context, eventKey string, future []match.Record) []Estimate {
	history, err := e.source.GetMatchesForEvent(ctx, eventKey)
	if err != nil {
		return e.unavailable(future)
	}

	completed := completedByTime(history)
	if len(completed) == 0 {
		return e.unavailable(future)
	}

	interval := pacingInterval(completed)
	now := e.now()

	// Match numbering restarts at each competition level (qualification,
	// quarterfinal, ...), so each projection anchors on the most recently
	// completed match of its own level.
	anchorByLevel := make(map[string]match.Record)
	for _, rec := range completed {
		anchorByLevel[match.CompLevel(rec.Key)] = rec
	}

	estimates := make([]Estimate, 0, len(future))
	for _, rec := range future {
		label, err := match.FormatKey(rec.Key)
		if err != nil {
			label = rec.Key
		}

		anchor, ok := anchorByLevel[match.CompLevel(rec.Key)]
		if !ok {
			estimates = append(estimates, Estimate{Label: label, NotAvailable: true})
			continue
		}

		offset := rec.MatchNumber - anchor.MatchNumber
		if offset <= 0 {
			estimates = append(estimates, Estimate{Label: label, NotAvailable: true})
			continue
		}

		projected := anchor.ActualTime.Add(time.Duration(offset) * interval)
		est := Estimate{
			Label:          label,
			ProjectedStart: projected,
		}
		if projected.Before(now) {
			est.MayHaveStarted = true
		} else {
			est.MinutesUntilStart = int(projected.Sub(now).Minutes())
		}
		estimates = append(estimates, est)
	}
	return estimates
}

// completedByTime filters matches to those with a recorded completion time
// and two valid scores, sorted by completion time ascending.
func completedByTime(records []match.Record) []match.Record {
	completed := make([]match.Record, 0, len(records))
	for _, rec := range records {
		if rec.IsPlayed() && !rec.ActualTime.IsZero() {
			completed = append(completed, rec)
		}
	}
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].ActualTime.Before(completed[j].ActualTime)
	})
	return completed
}

// pacingInterval is the median of consecutive positive completion deltas,
// floored at MinPacingInterval.
func pacingInterval(completed []match.Record) time.Duration {
	deltas := make([]float64, 0, len(completed))
	for i := 1; i < len(completed); i++ {
		delta := completed[i].ActualTime.Sub(completed[i-1].ActualTime)
		if delta > 0 {
			deltas = append(deltas, delta.Seconds())
		}
	}

	interval := time.Duration(stats.Median(deltas) * float64(time.Second))
	if interval < MinPacingInterval {
		interval = MinPacingInterval
	}
	return interval
}

// unavailable marks every future match as having no estimate.
func (e *Estimator) unavailable(future []match.Record) []Estimate {
	estimates := make([]Estimate, 0, len(future))
	for _, rec := range future {
		label, err := match.FormatKey(rec.Key)
		if err != nil {
			label = rec.Key
		}
		estimates = append(estimates, Estimate{Label: label, NotAvailable: true})
	}
	return estimates
}
