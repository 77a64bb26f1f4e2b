package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/312Evan/frcstats/internal/domain/leaderboard"
)

func testSnapshot(t *testing.T) *leaderboard.Snapshot {
	t.Helper()

	ranking := leaderboard.NewRanking()
	for _, row := range []struct {
		number       int
		nickname     string
		wins, losses int
	}{
		{254, "The Cheesy Poofs", 52, 6},
		{1678, "Citrus Circuits", 48, 10},
		{971, "Spartan Robotics", 40, 12},
	} {
		entry, err := leaderboard.NewEntry(row.number, row.nickname, row.wins, row.losses, 0)
		assert.NoError(t, err)
		assert.NoError(t, ranking.Add(entry))
	}
	ranking.Sort()

	return leaderboard.NewSnapshot("run-1", 2024, ranking, leaderboard.DefaultTopN)
}

func TestStore_WriteThenRead(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "leaderboard.json"))
	want := testSnapshot(t)

	assert.NoError(t, store.Write(context.Background(), want))

	got, err := store.Read(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, 2024, got.Season)
	assert.Equal(t, 3, got.TeamsProcessed)
	assert.Len(t, got.Entries, 3)
	assert.Equal(t, leaderboard.Rank(1), got.Entries[0].Rank)
	assert.Equal(t, 254, got.Entries[0].TeamNumber)
}

func TestStore_ReadBeforeFirstWrite(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "leaderboard.json"))

	_, err := store.Read(context.Background())

	assert.ErrorIs(t, err, leaderboard.ErrNoSnapshot)
}

func TestStore_WriteReplacesPrevious(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "leaderboard.json"))

	first := testSnapshot(t)
	assert.NoError(t, store.Write(context.Background(), first))

	ranking := leaderboard.NewRanking()
	entry, err := leaderboard.NewEntry(604, "Quixilver", 30, 20, 2)
	assert.NoError(t, err)
	assert.NoError(t, ranking.Add(entry))
	ranking.Sort()
	second := leaderboard.NewSnapshot("run-2", 2024, ranking, leaderboard.DefaultTopN)

	assert.NoError(t, store.Write(context.Background(), second))

	got, err := store.Read(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "run-2", got.ID)
	assert.Len(t, got.Entries, 1)

	// No temp files may survive a successful write.
	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_CreatesParentDirectories(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested", "deep", "leaderboard.json"))

	assert.NoError(t, store.Write(context.Background(), testSnapshot(t)))

	_, err := store.Read(context.Background())
	assert.NoError(t, err)
}
