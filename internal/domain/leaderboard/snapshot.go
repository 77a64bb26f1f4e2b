package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot is the persisted output of one batch pass: the truncated,
// ranked entry list plus generation metadata. A new snapshot replaces its
// predecessor wholesale; readers never observe a partial write.
type Snapshot struct {
	// ID uniquely identifies the batch run that produced this snapshot.
	ID string `json:"id"`

	// Season is the competition year the ranking covers.
	Season int `json:"season"`

	// GeneratedAt is when the batch pass completed.
	GeneratedAt time.Time `json:"generated_at"`

	// TeamsProcessed is how many teams the pass attempted, including
	// skipped failures.
	TeamsProcessed int `json:"teams_processed"`

	// Entries is the ranked top-N list.
	Entries []*Entry `json:"entries"`
}

// NewSnapshot builds a snapshot from a sorted ranking, truncating to topN.
func NewSnapshot(id string, season int, ranking *Ranking, topN int) *Snapshot {
	return &Snapshot{
		ID:             id,
		Season:         season,
		GeneratedAt:    time.Now().UTC(),
		TeamsProcessed: ranking.Count(),
		Entries:        ranking.Top(topN),
	}
}

// Encode serializes the snapshot for the blob store.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot deserializes a snapshot read from the blob store.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT STORE
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotStore persists the ranked snapshot. The batch job is the single
// writer; the query side only reads. Write must replace the previous
// snapshot atomically so concurrent readers see either the old or the new
// snapshot, never a mix.
type SnapshotStore interface {
	// Write replaces the persisted snapshot.
	Write(ctx context.Context, snapshot *Snapshot) error

	// Read returns the latest persisted snapshot, or ErrNoSnapshot if no
	// batch pass has completed yet.
	Read(ctx context.Context) (*Snapshot, error)
}
