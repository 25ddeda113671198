package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resumexpert/internal/types"
)

// -----------------------------------------------------------------------------
// Ranking Methods
// -----------------------------------------------------------------------------

// ListRankings returns a job's rankings, highest score first
func (db *DB) ListRankings(ctx context.Context, jobID string) ([]types.RankingResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, candidate_name, score, summary, filename, created_at
		 FROM rankings WHERE job_id = $1
		 ORDER BY score DESC, created_at, id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}
	defer rows.Close()

	rankings := []types.RankingResult{}
	for rows.Next() {
		var r types.RankingResult
		if err := rows.Scan(&r.ID, &r.JobID, &r.CandidateName, &r.Score, &r.Summary, &r.Filename, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		rankings = append(rankings, r)
	}
	return rankings, rows.Err()
}

// CountRankings returns the number of rankings owned by a job
func (db *DB) CountRankings(ctx context.Context, jobID string) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM rankings WHERE job_id = $1`, jobID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count rankings: %w", err)
	}
	return n, nil
}

// DeleteRanking deletes one ranking. Deleting a missing ranking is a no-op.
func (db *DB) DeleteRanking(ctx context.Context, jobID, rankingID string) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM rankings WHERE id = $1 AND job_id = $2`,
		rankingID, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete ranking: %w", err)
	}
	return nil
}

// SaveRankings inserts rankings for a job in one transaction. Rankings whose
// id already exists are left as they are; missing ids are generated.
func (db *DB) SaveRankings(ctx context.Context, jobID string, results []types.RankingResult) ([]types.RankingResult, error) {
	saved := make([]types.RankingResult, 0, len(results))
	now := time.Now().UTC()

	batch := &pgx.Batch{}
	for _, r := range results {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.JobID = jobID
		batch.Queue(
			`INSERT INTO rankings (id, job_id, candidate_name, score, summary, filename, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO NOTHING`,
			r.ID, r.JobID, r.CandidateName, r.Score, r.Summary, r.Filename, r.CreatedAt,
		)
		saved = append(saved, r)
	}

	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save rankings: %w", err)
	}
	return saved, nil
}
