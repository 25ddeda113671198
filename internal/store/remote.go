package store

import (
	"context"

	"github.com/jonathan/resumexpert/internal/types"
)

// RemoteAPI is the job and ranking surface of the backend HTTP client.
type RemoteAPI interface {
	CreateJob(ctx context.Context, in types.JobInput) (*types.Job, error)
	ListJobs(ctx context.Context) ([]types.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	ListRankings(ctx context.Context, jobID string) ([]types.RankingResult, error)
	DeleteRanking(ctx context.Context, jobID, rankingID string) error
}

// Remote is the Backend for the hosted service.
type Remote struct {
	RemoteAPI
}

// NewRemote wraps the HTTP client as a store backend.
func NewRemote(client RemoteAPI) *Remote {
	return &Remote{RemoteAPI: client}
}

// SaveRankings returns results unchanged: the service stores rankings itself
// while handling the rank request.
func (r *Remote) SaveRankings(_ context.Context, _ string, results []types.RankingResult) ([]types.RankingResult, error) {
	return results, nil
}
