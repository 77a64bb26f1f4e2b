package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalSchedule_Next(t *testing.T) {
	s := NewIntervalSchedule(30 * time.Minute)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(30*time.Minute), s.Next(now))
	assert.Equal(t, "@every 30m0s", s.String())
}

func TestDailySchedule_NextLaterToday(t *testing.T) {
	s := NewDailySchedule(21, 30)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	next := s.Next(now)

	assert.Equal(t, time.Date(2024, 3, 15, 21, 30, 0, 0, time.UTC), next)
}

func TestDailySchedule_RollsToTomorrow(t *testing.T) {
	s := NewDailySchedule(6, 0)
	now := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)

	next := s.Next(now)

	assert.Equal(t, time.Date(2024, 3, 16, 6, 0, 0, 0, time.UTC), next)
}

func TestScheduler_RegisterRejectsDuplicates(t *testing.T) {
	s := NewScheduler(nil)
	job := &stubJob{name: "pass"}

	assert.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour), false))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Hour), false), ErrJobAlreadyExists)

	infos := s.ListJobs()
	assert.Len(t, infos, 1)
	assert.Equal(t, "pass", infos[0].Name)
}

type stubJob struct {
	name string
}

func (j *stubJob) Name() string                  { return j.name }
func (j *stubJob) Run(ctx context.Context) error { return nil }
func (j *stubJob) Description() string           { return "stub" }
