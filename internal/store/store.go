// Package store provides access to job postings and their ranking results,
// keeping each job's resume count equal to its live number of rankings.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resumexpert/internal/observability"
	"github.com/jonathan/resumexpert/internal/types"
)

// DefaultConcurrency bounds the ranking-count fan-out in ListJobs.
const DefaultConcurrency = 4

// Backend persists jobs and rankings. Deletes of missing ids must succeed.
type Backend interface {
	CreateJob(ctx context.Context, in types.JobInput) (*types.Job, error)
	ListJobs(ctx context.Context) ([]types.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	ListRankings(ctx context.Context, jobID string) ([]types.RankingResult, error)
	DeleteRanking(ctx context.Context, jobID, rankingID string) error
	// SaveRankings idempotently persists results for jobID and returns them as stored.
	SaveRankings(ctx context.Context, jobID string, results []types.RankingResult) ([]types.RankingResult, error)
}

// LiveCounter is implemented by backends that return jobs with live ranking
// counts in a single query.
type LiveCounter interface {
	ListJobsWithCounts(ctx context.Context) ([]types.Job, error)
}

// RankingCounter is implemented by backends that can count a job's rankings
// without listing them.
type RankingCounter interface {
	CountRankings(ctx context.Context, jobID string) (int, error)
}

// JobGetter is implemented by backends that load a single job with its live
// ranking count. A missing job is returned as nil, nil.
type JobGetter interface {
	GetJob(ctx context.Context, jobID string) (*types.Job, error)
}

// ErrJobNotFound is returned by GetJob for an unknown id.
var ErrJobNotFound = errors.New("job not found")

// CascadingDeleter is implemented by backends that delete a job and its
// rankings atomically.
type CascadingDeleter interface {
	DeleteJobCascade(ctx context.Context, jobID string) error
}

// Options configures a Store.
type Options struct {
	Concurrency int
	Logger      logrus.FieldLogger
}

// Store caches jobs in memory. It is safe for concurrent use; the cache is
// only updated after the backend call succeeds.
type Store struct {
	backend     Backend
	concurrency int
	log         logrus.FieldLogger

	mu   sync.RWMutex
	jobs map[string]types.Job
}

// New creates a store over backend.
func New(backend Backend, opts Options) *Store {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Store{
		backend:     backend,
		concurrency: opts.Concurrency,
		log:         observability.Component(opts.Logger, "store"),
		jobs:        map[string]types.Job{},
	}
}

// Job returns the cached job with its current resume count.
func (s *Store) Job(jobID string) (types.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[jobID]
	return j, ok
}

func (s *Store) put(job types.Job) {
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
}

func (s *Store) forget(jobID string) {
	s.mu.Lock()
	delete(s.jobs, jobID)
	s.mu.Unlock()
}

func (s *Store) setCount(jobID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[jobID]; ok {
		j.ResumeCount = count
		s.jobs[jobID] = j
	}
}

// CreateJob validates and stores a new job. A new job has no rankings.
func (s *Store) CreateJob(ctx context.Context, title, description string) (*types.Job, error) {
	in := types.NewJobInput(title, description)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	job, err := s.backend.CreateJob(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	job.ResumeCount = 0
	s.put(*job)

	s.log.WithField("job_id", job.ID).Info("job created")
	return job, nil
}

// ListJobs returns all jobs with resume counts taken from live ranking counts.
func (s *Store) ListJobs(ctx context.Context) ([]types.Job, error) {
	var jobs []types.Job
	var err error

	if lc, ok := s.backend.(LiveCounter); ok {
		jobs, err = lc.ListJobsWithCounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list jobs: %w", err)
		}
	} else {
		jobs, err = s.backend.ListJobs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list jobs: %w", err)
		}
		if err := s.fillCounts(ctx, jobs); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.jobs = make(map[string]types.Job, len(jobs))
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	s.mu.Unlock()

	return jobs, nil
}

// GetJob loads one job with its live resume count. Backends without a direct
// lookup fall back to a full listing.
func (s *Store) GetJob(ctx context.Context, jobID string) (*types.Job, error) {
	jg, ok := s.backend.(JobGetter)
	if !ok {
		if _, err := s.ListJobs(ctx); err != nil {
			return nil, err
		}
		job, found := s.Job(jobID)
		if !found {
			return nil, fmt.Errorf("job %s: %w", jobID, ErrJobNotFound)
		}
		return &job, nil
	}

	job, err := jg.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		s.forget(jobID)
		return nil, fmt.Errorf("job %s: %w", jobID, ErrJobNotFound)
	}
	s.put(*job)
	return job, nil
}

// fillCounts sets ResumeCount on every job with a bounded fan-out.
func (s *Store) fillCounts(ctx context.Context, jobs []types.Job) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range jobs {
		g.Go(func() error {
			n, err := s.countRankings(gctx, jobs[i].ID)
			if err != nil {
				return fmt.Errorf("failed to count rankings for job %s: %w", jobs[i].ID, err)
			}
			jobs[i].ResumeCount = n
			return nil
		})
	}
	return g.Wait()
}

func (s *Store) countRankings(ctx context.Context, jobID string) (int, error) {
	if rc, ok := s.backend.(RankingCounter); ok {
		return rc.CountRankings(ctx, jobID)
	}
	rankings, err := s.backend.ListRankings(ctx, jobID)
	if err != nil {
		return 0, err
	}
	return len(rankings), nil
}

// DeleteJob removes a job and all of its rankings. Without an atomic backend
// cascade the rankings go first, so a failure never leaves orphans.
func (s *Store) DeleteJob(ctx context.Context, jobID string) error {
	log := s.log.WithField("job_id", jobID)

	if cd, ok := s.backend.(CascadingDeleter); ok {
		if err := cd.DeleteJobCascade(ctx, jobID); err != nil {
			return fmt.Errorf("failed to delete job: %w", err)
		}
		s.forget(jobID)
		log.Info("job deleted")
		return nil
	}

	rankings, err := s.backend.ListRankings(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to list rankings before delete: %w", err)
	}
	for _, r := range rankings {
		if err := s.backend.DeleteRanking(ctx, jobID, r.ID); err != nil {
			// Some rankings may be gone; the cached count is no longer known.
			s.forget(jobID)
			return fmt.Errorf("failed to delete ranking %s: %w", r.ID, err)
		}
	}
	if err := s.backend.DeleteJob(ctx, jobID); err != nil {
		s.setCount(jobID, 0)
		return fmt.Errorf("failed to delete job: %w", err)
	}

	s.forget(jobID)
	log.WithField("rankings", len(rankings)).Info("job deleted")
	return nil
}

// ListRankings returns a job's rankings sorted by score, highest first.
func (s *Store) ListRankings(ctx context.Context, jobID string) ([]types.RankingResult, error) {
	rankings, err := s.backend.ListRankings(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}
	SortByScore(rankings)
	s.setCount(jobID, len(rankings))
	return rankings, nil
}

// DeleteRanking removes one ranking and recomputes the job's resume count.
func (s *Store) DeleteRanking(ctx context.Context, jobID, rankingID string) error {
	if err := s.backend.DeleteRanking(ctx, jobID, rankingID); err != nil {
		return fmt.Errorf("failed to delete ranking: %w", err)
	}
	if _, err := s.RefreshCount(ctx, jobID); err != nil {
		s.forget(jobID)
		return fmt.Errorf("ranking deleted but resume count refresh failed: %w", err)
	}
	return nil
}

// MergeRankings persists results for a job and refreshes its resume count.
func (s *Store) MergeRankings(ctx context.Context, jobID string, results []types.RankingResult) ([]types.RankingResult, error) {
	for i := range results {
		if results[i].Score < 0 || results[i].Score > 100 {
			return nil, &types.ValidationError{Field: "score", Message: fmt.Sprintf("%d is outside 0-100", results[i].Score)}
		}
		results[i].JobID = jobID
	}

	saved, err := s.backend.SaveRankings(ctx, jobID, results)
	if err != nil {
		return nil, fmt.Errorf("failed to save rankings: %w", err)
	}
	if _, err := s.RefreshCount(ctx, jobID); err != nil {
		s.forget(jobID)
		return saved, fmt.Errorf("rankings saved but resume count refresh failed: %w", err)
	}
	return saved, nil
}

// RefreshCount re-reads the live ranking count for a job and caches it.
func (s *Store) RefreshCount(ctx context.Context, jobID string) (int, error) {
	n, err := s.countRankings(ctx, jobID)
	if err != nil {
		return 0, err
	}
	s.setCount(jobID, n)
	return n, nil
}

// SortByScore orders rankings by score, highest first, keeping the relative
// order of equal scores.
func SortByScore(rankings []types.RankingResult) {
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Score > rankings[j].Score
	})
}
