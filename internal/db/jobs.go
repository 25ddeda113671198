package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resumexpert/internal/types"
)

// -----------------------------------------------------------------------------
// Job Methods
// -----------------------------------------------------------------------------

// CreateJob inserts a job with a generated id
func (db *DB) CreateJob(ctx context.Context, in types.JobInput) (*types.Job, error) {
	job := types.Job{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, title, description)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		job.ID, job.Title, job.Description,
	).Scan(&job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return &job, nil
}

// GetJob retrieves a job with its live ranking count, or nil if it does not exist
func (db *DB) GetJob(ctx context.Context, id string) (*types.Job, error) {
	var j types.Job
	err := db.pool.QueryRow(ctx,
		`SELECT j.id, j.title, j.description, j.created_at,
		        (SELECT COUNT(*) FROM rankings r WHERE r.job_id = j.id)
		 FROM jobs j WHERE j.id = $1`,
		id,
	).Scan(&j.ID, &j.Title, &j.Description, &j.CreatedAt, &j.ResumeCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &j, nil
}

// ListJobs returns all jobs, newest first, without counts
func (db *DB) ListJobs(ctx context.Context) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, title, description, created_at
		 FROM jobs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []types.Job{}
	for rows.Next() {
		var j types.Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Description, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ListJobsWithCounts returns all jobs with resume counts computed in the same query
func (db *DB) ListJobsWithCounts(ctx context.Context) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT j.id, j.title, j.description, j.created_at,
		        (SELECT COUNT(*) FROM rankings r WHERE r.job_id = j.id) AS resume_count
		 FROM jobs j ORDER BY j.created_at DESC, j.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []types.Job{}
	for rows.Next() {
		var j types.Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Description, &j.CreatedAt, &j.ResumeCount); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// DeleteJob deletes a job; its rankings go with it through ON DELETE CASCADE
func (db *DB) DeleteJob(ctx context.Context, id string) error {
	return db.DeleteJobCascade(ctx, id)
}

// DeleteJobCascade deletes a job and its rankings in one transaction.
// Deleting a missing job is a no-op.
func (db *DB) DeleteJobCascade(ctx context.Context, id string) error {
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM rankings WHERE job_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}
