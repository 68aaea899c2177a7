package standings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/skyfall-games/skyfall/internal/models"
)

// Repository persists completed match results to Postgres. The schema is a
// single append-only table; per-participant standings ride along as JSONB.
//
//	CREATE TABLE match_results (
//	    match_id     text PRIMARY KEY,
//	    rounds_total int NOT NULL,
//	    started_at   timestamptz NOT NULL,
//	    ended_at     timestamptz NOT NULL,
//	    standings    jsonb NOT NULL
//	);
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a standings repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// RecordResult inserts the final standings for a completed match. Recording
// the same match twice is a conflict no-op: the first write wins.
func (r *Repository) RecordResult(ctx context.Context, result models.MatchResult) error {
	standingsJSON, err := json.Marshal(result.Standings)
	if err != nil {
		return fmt.Errorf("marshal standings: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`INSERT INTO match_results (match_id, rounds_total, started_at, ended_at, standings)
         VALUES ($1, $2, $3, $4, $5)
         ON CONFLICT (match_id) DO NOTHING`,
		result.MatchID,
		result.RoundsTotal,
		result.StartedAt,
		result.EndedAt,
		standingsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert match result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		log.Warn().Str("match_id", result.MatchID).Msg("match result already recorded")
		return nil
	}

	log.Info().
		Str("match_id", result.MatchID).
		Int("participants", len(result.Standings)).
		Msg("match result recorded")
	return nil
}

// GetResult loads a previously recorded match result.
func (r *Repository) GetResult(ctx context.Context, matchID string) (*models.MatchResult, error) {
	var result models.MatchResult
	var standingsJSON []byte
	err := r.db.QueryRow(ctx,
		`SELECT match_id, rounds_total, started_at, ended_at, standings
         FROM match_results
         WHERE match_id = $1`,
		matchID,
	).Scan(&result.MatchID, &result.RoundsTotal, &result.StartedAt, &result.EndedAt, &standingsJSON)
	if err != nil {
		return nil, fmt.Errorf("get match result: %w", err)
	}
	if err := json.Unmarshal(standingsJSON, &result.Standings); err != nil {
		return nil, fmt.Errorf("unmarshal standings: %w", err)
	}
	return &result, nil
}
