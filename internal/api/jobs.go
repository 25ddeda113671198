package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resumexpert/internal/schemas"
	"github.com/jonathan/resumexpert/internal/types"
)

// CreateJob posts a new job and returns it as stored by the backend.
func (c *Client) CreateJob(ctx context.Context, in types.JobInput) (*types.Job, error) {
	const op = "create job"

	body, err := c.call(ctx, op, http.MethodPost, in, "api", "jobs")
	if err != nil {
		return nil, err
	}
	var w wireJob
	if err := decode(op, schemas.Job, body, &w); err != nil {
		return nil, err
	}
	job := w.toJob()
	return &job, nil
}

// ListJobs returns every job visible to the session.
func (c *Client) ListJobs(ctx context.Context) ([]types.Job, error) {
	const op = "list jobs"

	body, err := c.call(ctx, op, http.MethodGet, nil, "api", "jobs")
	if err != nil {
		return nil, err
	}
	var w wireJobList
	if err := decode(op, schemas.JobList, body, &w); err != nil {
		return nil, err
	}
	jobs := make([]types.Job, 0, len(w.Jobs))
	for _, wj := range w.Jobs {
		jobs = append(jobs, wj.toJob())
	}
	return jobs, nil
}

// DeleteJob removes a job. Deleting a job that no longer exists succeeds.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	if err := requireID("job", jobID); err != nil {
		return err
	}
	_, err := c.call(ctx, "delete job", http.MethodDelete, nil, "api", "jobs", jobID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// ListRankings returns the ranking results stored for a job, in backend order.
func (c *Client) ListRankings(ctx context.Context, jobID string) ([]types.RankingResult, error) {
	const op = "list rankings"

	if err := requireID("job", jobID); err != nil {
		return nil, err
	}
	body, err := c.call(ctx, op, http.MethodGet, nil, "api", "jobs", jobID, "rankings")
	if err != nil {
		return nil, err
	}
	var ws []wireRanking
	if err := decode(op, schemas.Rankings, body, &ws); err != nil {
		return nil, err
	}
	return toRankings(jobID, ws), nil
}

// DeleteRanking removes one ranking. Deleting a ranking that no longer exists succeeds.
func (c *Client) DeleteRanking(ctx context.Context, jobID, rankingID string) error {
	if err := requireID("job", jobID); err != nil {
		return err
	}
	if err := requireID("ranking", rankingID); err != nil {
		return err
	}
	_, err := c.call(ctx, "delete ranking", http.MethodDelete, nil, "api", "jobs", jobID, "rankings", rankingID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func requireID(kind, id string) error {
	if id == "" {
		return &types.ValidationError{Field: kind + "_id", Message: fmt.Sprintf("%s id is required", kind)}
	}
	return nil
}
