package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/312Evan/frcstats/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEMA
// ══════════════════════════════════════════════════════════════════════════════

// snapshotSchema holds the two leaderboard tables. A snapshot row carries the
// run metadata; entry rows reference it and are replaced together with it.
const snapshotSchema = `
CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
    singleton        BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    run_id           TEXT NOT NULL,
    season           INTEGER NOT NULL,
    generated_at     TIMESTAMPTZ NOT NULL,
    teams_processed  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS leaderboard_entries (
    rank            INTEGER PRIMARY KEY,
    team_number     INTEGER NOT NULL UNIQUE,
    nickname        TEXT NOT NULL,
    wins            INTEGER NOT NULL,
    losses          INTEGER NOT NULL,
    ties            INTEGER NOT NULL,
    ratio           DOUBLE PRECISION NOT NULL,
    matches_played  INTEGER NOT NULL
);
`

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT STORE
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotStore persists the leaderboard snapshot in PostgreSQL. The whole
// snapshot is replaced in one transaction, so a concurrent reader sees either
// the previous run's rows or the new run's rows.
type SnapshotStore struct {
	conn *Connection
}

// NewSnapshotStore creates the store and ensures the schema exists.
func NewSnapshotStore(ctx context.Context, conn *Connection) (*SnapshotStore, error) {
	if _, err := conn.Pool().Exec(ctx, snapshotSchema); err != nil {
		return nil, fmt.Errorf("postgres: create leaderboard schema: %w", err)
	}
	return &SnapshotStore{conn: conn}, nil
}

// Write replaces the persisted snapshot transactionally.
func (s *SnapshotStore) Write(ctx context.Context, snapshot *leaderboard.Snapshot) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM leaderboard_entries`); err != nil {
			return fmt.Errorf("clear entries: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO leaderboard_snapshots (singleton, run_id, season, generated_at, teams_processed)
			VALUES (TRUE, $1, $2, $3, $4)
			ON CONFLICT (singleton) DO UPDATE SET
				run_id          = excluded.run_id,
				season          = excluded.season,
				generated_at    = excluded.generated_at,
				teams_processed = excluded.teams_processed`,
			snapshot.ID, snapshot.Season, snapshot.GeneratedAt, snapshot.TeamsProcessed,
		); err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}

		rows := make([][]interface{}, 0, len(snapshot.Entries))
		for _, e := range snapshot.Entries {
			rows = append(rows, []interface{}{
				int(e.Rank), e.TeamNumber, e.Nickname,
				e.Wins, e.Losses, e.Ties, e.Ratio, e.MatchesPlayed,
			})
		}

		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"leaderboard_entries"},
			[]string{"rank", "team_number", "nickname", "wins", "losses", "ties", "ratio", "matches_played"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("insert entries: %w", err)
		}

		return nil
	})
}

// Read returns the latest persisted snapshot.
func (s *SnapshotStore) Read(ctx context.Context) (*leaderboard.Snapshot, error) {
	snapshot := &leaderboard.Snapshot{}

	err := s.conn.Pool().QueryRow(ctx, `
		SELECT run_id, season, generated_at, teams_processed
		FROM leaderboard_snapshots`,
	).Scan(&snapshot.ID, &snapshot.Season, &snapshot.GeneratedAt, &snapshot.TeamsProcessed)
	if err != nil {
		if IsNoRows(err) {
			return nil, leaderboard.ErrNoSnapshot
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	rows, err := s.conn.Pool().Query(ctx, `
		SELECT rank, team_number, nickname, wins, losses, ties, ratio, matches_played
		FROM leaderboard_entries
		ORDER BY rank`)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry leaderboard.Entry
		var rank int
		if err := rows.Scan(
			&rank, &entry.TeamNumber, &entry.Nickname,
			&entry.Wins, &entry.Losses, &entry.Ties, &entry.Ratio, &entry.MatchesPlayed,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entry.Rank = leaderboard.Rank(rank)
		snapshot.Entries = append(snapshot.Entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}

	return snapshot, nil
}
