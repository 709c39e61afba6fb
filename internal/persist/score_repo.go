package persist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScoreRow is one finished session.
type ScoreRow struct {
	SessionID uuid.UUID
	Players   []string
	Score     int
	Sectors   int    // sectors cleared
	Outcome   string // "complete" or "game_over"
	CreatedAt time.Time
}

// SectorResult is one sector played within a session.
type SectorResult struct {
	Sector  string
	Outcome string
	Score   int
	Ticks   int
}

type ScoreRepo struct {
	db *DB
}

func NewScoreRepo(db *DB) *ScoreRepo {
	return &ScoreRepo{db: db}
}

// Record writes a session and its sector results in one transaction.
func (r *ScoreRepo) Record(ctx context.Context, row ScoreRow, sectors []SectorResult) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("score begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO scores (session_id, players, score, sectors, outcome)
		 VALUES ($1, $2, $3, $4, $5)`,
		row.SessionID.String(), strings.Join(row.Players, ","), row.Score, row.Sectors, row.Outcome,
	); err != nil {
		return fmt.Errorf("score insert: %w", err)
	}
	for _, s := range sectors {
		if _, err := tx.Exec(ctx,
			`INSERT INTO sector_results (session_id, sector, outcome, score, ticks)
			 VALUES ($1, $2, $3, $4, $5)`,
			row.SessionID.String(), s.Sector, s.Outcome, s.Score, s.Ticks,
		); err != nil {
			return fmt.Errorf("sector result insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Top returns the n best sessions, highest score first.
func (r *ScoreRepo) Top(ctx context.Context, n int) ([]ScoreRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT session_id::text, players, score, sectors, outcome, created_at
		 FROM scores ORDER BY score DESC, created_at ASC LIMIT $1`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var (
			row     ScoreRow
			id      string
			players string
		)
		if err := rows.Scan(&id, &players, &row.Score, &row.Sectors, &row.Outcome, &row.CreatedAt); err != nil {
			return nil, err
		}
		if row.SessionID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("score session id %q: %w", id, err)
		}
		if players != "" {
			row.Players = strings.Split(players, ",")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
