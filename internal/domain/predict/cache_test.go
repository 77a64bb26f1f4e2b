package predict

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/312Evan/frcstats/internal/domain/match"
)

// fakeSource serves canned match records and counts upstream fetches.
type fakeSource struct {
	mu      sync.Mutex
	fetches map[string]*int64
	records map[string][]match.Record
	err     error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		fetches: make(map[string]*int64),
		records: make(map[string][]match.Record),
	}
}

func (f *fakeSource) set(teamKey string, scores ...int) {
	records := make([]match.Record, 0, len(scores))
	for i, score := range scores {
		records = append(records, match.Record{
			Key:  "2024test_qm" + strconv.Itoa(i+1),
			Red:  match.Alliance{Score: score, TeamKeys: []string{teamKey}},
			Blue: match.Alliance{Score: 0, TeamKeys: []string{"frc0"}},
		})
	}
	f.records[teamKey] = records
}

func (f *fakeSource) GetMatchesForTeam(_ context.Context, teamKey string, _ int) ([]match.Record, error) {
	f.mu.Lock()
	counter, ok := f.fetches[teamKey]
	if !ok {
		counter = new(int64)
		f.fetches[teamKey] = counter
	}
	f.mu.Unlock()
	atomic.AddInt64(counter, 1)

	if f.err != nil {
		return nil, f.err
	}
	return f.records[teamKey], nil
}

func (f *fakeSource) fetchCount(teamKey string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	counter, ok := f.fetches[teamKey]
	if !ok {
		return 0
	}
	return atomic.LoadInt64(counter)
}

func TestTeamMedianCache_FetchesOnce(t *testing.T) {
	source := newFakeSource()
	source.set("frc254", 40, 50, 60)
	cache := NewTeamMedianCache(source, 2024)

	for i := 0; i < 5; i++ {
		median, err := cache.Get(context.Background(), "frc254")
		assert.NoError(t, err)
		assert.Equal(t, 50.0, median)
	}

	assert.Equal(t, int64(1), source.fetchCount("frc254"))
}

func TestTeamMedianCache_ConcurrentFirstAccess(t *testing.T) {
	source := newFakeSource()
	source.set("frc254", 10, 20, 30)
	cache := NewTeamMedianCache(source, 2024)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			median, err := cache.Get(context.Background(), "frc254")
			assert.NoError(t, err)
			assert.Equal(t, 20.0, median)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), source.fetchCount("frc254"))
}

func TestTeamMedianCache_ScopeIsolation(t *testing.T) {
	source := newFakeSource()
	source.set("frc254", 100)

	first := NewTeamMedianCache(source, 2024)
	_, err := first.Get(context.Background(), "frc254")
	assert.NoError(t, err)

	second := NewTeamMedianCache(source, 2024)
	_, err = second.Get(context.Background(), "frc254")
	assert.NoError(t, err)

	// A fresh scope re-fetches; nothing leaks across computations.
	assert.Equal(t, int64(2), source.fetchCount("frc254"))
	assert.Equal(t, 1, second.Len())
}

func TestTeamMedianCache_UnplayedExcluded(t *testing.T) {
	source := newFakeSource()
	source.set("frc254", 40, match.UnplayedScore, 60)
	cache := NewTeamMedianCache(source, 2024)

	median, err := cache.Get(context.Background(), "frc254")
	assert.NoError(t, err)
	assert.Equal(t, 50.0, median)
}
