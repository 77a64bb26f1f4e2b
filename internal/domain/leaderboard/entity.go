// Package leaderboard contains the domain model for the global ranking: the
// per-team entries produced by a batch pass, the ranking that sorts and
// assigns ranks, and the persisted snapshot that replaces its predecessor
// atomically.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank is a team's 1-based position in the ranking.
type Rank int

// IsValid checks that the rank is positive.
func (r Rank) IsValid() bool {
	return r > 0
}

// String returns the display form of the rank.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// DefaultTopN is the number of entries a persisted snapshot is truncated to.
const DefaultTopN = 250

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one team's row in the leaderboard. Entries are produced fresh on
// every batch pass.
type Entry struct {
	// Rank is the dense 1-based rank, assigned after the full sort.
	Rank Rank `json:"rank"`

	// TeamNumber is the team's competition number.
	TeamNumber int `json:"team_number"`

	// Nickname is the team's display name.
	Nickname string `json:"nickname"`

	// Wins, Losses, and Ties are the season outcome counters.
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`

	// Ratio is wins / (wins + losses). A team with zero decided matches
	// gets 0, not an error.
	Ratio float64 `json:"ratio"`

	// MatchesPlayed is the total number of played matches.
	MatchesPlayed int `json:"matches_played"`
}

// NewEntry builds an entry from a team's aggregated counters, computing the
// win/loss ratio. The rank is assigned later by Ranking.Sort.
func NewEntry(teamNumber int, nickname string, wins, losses, ties int) (*Entry, error) {
	if teamNumber <= 0 {
		return nil, ErrInvalidTeamNumber
	}

	ratio := 0.0
	if decided := wins + losses; decided > 0 {
		ratio = float64(wins) / float64(decided)
	}

	return &Entry{
		TeamNumber:    teamNumber,
		Nickname:      nickname,
		Wins:          wins,
		Losses:        losses,
		Ties:          ties,
		Ratio:         ratio,
		MatchesPlayed: wins + losses + ties,
	}, nil
}

// Record returns the W-L-T display string, e.g. "12-3-1".
func (e *Entry) Record() string {
	return fmt.Sprintf("%d-%d-%d", e.Wins, e.Losses, e.Ties)
}

// Clone returns a copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Ranking is the working list a batch pass accumulates before sorting,
// truncating, and persisting.
type Ranking struct {
	entries []*Entry
	byTeam  map[int]*Entry
}

// NewRanking creates an empty Ranking.
func NewRanking() *Ranking {
	return &Ranking{
		entries: make([]*Entry, 0),
		byTeam:  make(map[int]*Entry),
	}
}

// Add appends an entry. Duplicate team numbers are rejected.
func (r *Ranking) Add(entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if _, exists := r.byTeam[entry.TeamNumber]; exists {
		return ErrDuplicateTeam
	}

	r.entries = append(r.entries, entry)
	r.byTeam[entry.TeamNumber] = entry
	return nil
}

// Sort orders entries by ratio descending, wins descending, then team number
// ascending, and assigns dense 1-based ranks.
func (r *Ranking) Sort() {
	sort.SliceStable(r.entries, func(i, j int) bool {
		if r.entries[i].Ratio != r.entries[j].Ratio {
			return r.entries[i].Ratio > r.entries[j].Ratio
		}
		if r.entries[i].Wins != r.entries[j].Wins {
			return r.entries[i].Wins > r.entries[j].Wins
		}
		return r.entries[i].TeamNumber < r.entries[j].TeamNumber
	})

	for i, entry := range r.entries {
		entry.Rank = Rank(i + 1)
	}
}

// Top returns the first n entries. Ranks are preserved, so after Sort the
// truncated set carries dense ranks 1..n.
func (r *Ranking) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(r.entries) {
		n = len(r.entries)
	}
	result := make([]*Entry, n)
	copy(result, r.entries[:n])
	return result
}

// GetByTeam returns the entry for a team number, or nil.
func (r *Ranking) GetByTeam(teamNumber int) *Entry {
	return r.byTeam[teamNumber]
}

// Count returns the number of entries.
func (r *Ranking) Count() int {
	return len(r.entries)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidTeamNumber rejects non-positive team numbers.
	ErrInvalidTeamNumber = errors.New("invalid team number: must be positive")

	// ErrNilEntry rejects adding a nil entry.
	ErrNilEntry = errors.New("cannot add nil entry")

	// ErrDuplicateTeam rejects a team already present in the ranking.
	ErrDuplicateTeam = errors.New("team already exists in ranking")

	// ErrNoSnapshot is returned when no snapshot has been persisted yet.
	ErrNoSnapshot = errors.New("leaderboard snapshot not available yet")
)
