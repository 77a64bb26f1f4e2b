package schedule

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/312Evan/frcstats/internal/domain/match"
)

// fakeEventSource serves a canned match history for one event.
type fakeEventSource struct {
	records []match.Record
	err     error
}

func (f *fakeEventSource) GetMatchesForEvent(context.Context, string) ([]match.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

var baseTime = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func completedMatch(num int, completedAt time.Time) match.Record {
	return match.Record{
		Key:         "2024miket_qm" + strconv.Itoa(num),
		MatchNumber: num,
		Red:         match.Alliance{Score: 50, TeamKeys: []string{"frc1"}},
		Blue:        match.Alliance{Score: 40, TeamKeys: []string{"frc2"}},
		ActualTime:  completedAt,
	}
}

func futureMatch(num int) match.Record {
	return match.Record{
		Key:         "2024miket_qm" + strconv.Itoa(num),
		MatchNumber: num,
		Red:         match.Alliance{Score: match.UnplayedScore, TeamKeys: []string{"frc1"}},
		Blue:        match.Alliance{Score: match.UnplayedScore, TeamKeys: []string{"frc2"}},
	}
}

func TestEstimate_ProjectsFromPacingInterval(t *testing.T) {
	// Three completed matches, 10 minutes apart.
	source := &fakeEventSource{records: []match.Record{
		completedMatch(1, baseTime),
		completedMatch(2, baseTime.Add(10*time.Minute)),
		completedMatch(3, baseTime.Add(20*time.Minute)),
	}}
	now := baseTime.Add(21 * time.Minute)
	est := NewEstimator(source, func() time.Time { return now })

	got := est.Estimate(context.Background(), "2024miket", []match.Record{futureMatch(5)})

	assert.Len(t, got, 1)
	assert.False(t, got[0].NotAvailable)
	assert.False(t, got[0].MayHaveStarted)
	// Anchor qm3 at +20m, offset 2 matches at 10m pacing: starts at +40m, 19m out.
	assert.Equal(t, baseTime.Add(40*time.Minute), got[0].ProjectedStart)
	assert.Equal(t, 19, got[0].MinutesUntilStart)
}

func TestEstimate_FloorsImplausiblySmallInterval(t *testing.T) {
	// Completions 5 seconds apart are below the floor.
	source := &fakeEventSource{records: []match.Record{
		completedMatch(1, baseTime),
		completedMatch(2, baseTime.Add(5*time.Second)),
	}}
	est := NewEstimator(source, func() time.Time { return baseTime })

	got := est.Estimate(context.Background(), "2024miket", []match.Record{futureMatch(3)})

	assert.Len(t, got, 1)
	assert.Equal(t, baseTime.Add(5*time.Second).Add(MinPacingInterval), got[0].ProjectedStart)
}

func TestEstimate_SingleCompletedMatchUsesFloor(t *testing.T) {
	source := &fakeEventSource{records: []match.Record{
		completedMatch(1, baseTime),
	}}
	est := NewEstimator(source, func() time.Time { return baseTime })

	got := est.Estimate(context.Background(), "2024miket", []match.Record{futureMatch(2)})

	assert.Len(t, got, 1)
	assert.Equal(t, baseTime.Add(MinPacingInterval), got[0].ProjectedStart)
}

func TestEstimate_PastProjectionMayHaveStarted(t *testing.T) {
	source := &fakeEventSource{records: []match.Record{
		completedMatch(1, baseTime),
		completedMatch(2, baseTime.Add(10*time.Minute)),
	}}
	now := baseTime.Add(2 * time.Hour)
	est := NewEstimator(source, func() time.Time { return now })

	got := est.Estimate(context.Background(), "2024miket", []match.Record{futureMatch(3)})

	assert.Len(t, got, 1)
	assert.True(t, got[0].MayHaveStarted)
}

func TestEstimate_AnchorsPerCompetitionLevel(t *testing.T) {
	// Qualification numbering ends at 50; elimination numbering restarts at 1,
	// so projecting a semifinal off the qualification anchor would go backwards.
	source := &fakeEventSource{records: []match.Record{
		completedMatch(49, baseTime),
		completedMatch(50, baseTime.Add(10*time.Minute)),
		{
			Key:         "2024miket_sf1m1",
			MatchNumber: 1,
			Red:         match.Alliance{Score: 55, TeamKeys: []string{"frc1"}},
			Blue:        match.Alliance{Score: 35, TeamKeys: []string{"frc2"}},
			ActualTime:  baseTime.Add(30 * time.Minute),
		},
	}}
	now := baseTime.Add(31 * time.Minute)
	est := NewEstimator(source, func() time.Time { return now })

	future := []match.Record{
		{
			Key:         "2024miket_sf1m2",
			MatchNumber: 2,
			Red:         match.Alliance{Score: match.UnplayedScore, TeamKeys: []string{"frc1"}},
			Blue:        match.Alliance{Score: match.UnplayedScore, TeamKeys: []string{"frc2"}},
		},
		{
			Key:         "2024miket_f1m1",
			MatchNumber: 1,
			Red:         match.Alliance{Score: match.UnplayedScore, TeamKeys: []string{"frc1"}},
			Blue:        match.Alliance{Score: match.UnplayedScore, TeamKeys: []string{"frc2"}},
		},
	}

	got := est.Estimate(context.Background(), "2024miket", future)

	assert.Len(t, got, 2)
	// Semifinal 2 anchors on completed semifinal 1: pacing deltas 10m and 20m
	// give a 15m median, so it projects to +45m.
	assert.False(t, got[0].NotAvailable)
	assert.Equal(t, baseTime.Add(45*time.Minute), got[0].ProjectedStart)
	// No final has completed yet, so the final has no anchor.
	assert.True(t, got[1].NotAvailable)
}

func TestEstimate_UpstreamFailureDegrades(t *testing.T) {
	source := &fakeEventSource{err: errors.New("connection refused")}
	est := NewEstimator(source, nil)

	got := est.Estimate(context.Background(), "2024miket", []match.Record{futureMatch(3), futureMatch(4)})

	assert.Len(t, got, 2)
	for _, e := range got {
		assert.True(t, e.NotAvailable)
	}
}

func TestEstimate_NoCompletedMatchesDegrades(t *testing.T) {
	source := &fakeEventSource{records: []match.Record{futureMatch(1)}}
	est := NewEstimator(source, nil)

	got := est.Estimate(context.Background(), "2024miket", []match.Record{futureMatch(2)})

	assert.Len(t, got, 1)
	assert.True(t, got[0].NotAvailable)
}
