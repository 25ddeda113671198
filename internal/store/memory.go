package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resumexpert/internal/types"
)

// Memory is an in-process Backend. Jobs and rankings keep insertion order.
type Memory struct {
	mu       sync.Mutex
	jobs     []types.Job
	rankings map[string][]types.RankingResult
	now      func() time.Time
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{rankings: map[string][]types.RankingResult{}, now: time.Now}
}

func (m *Memory) CreateJob(_ context.Context, in types.JobInput) (*types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := types.Job{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   m.now().UTC(),
	}
	m.jobs = append(m.jobs, job)
	return &job, nil
}

func (m *Memory) ListJobs(context.Context) ([]types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Job(nil), m.jobs...), nil
}

func (m *Memory) DeleteJob(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, j := range m.jobs {
		if j.ID == jobID {
			m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) ListRankings(_ context.Context, jobID string) ([]types.RankingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.RankingResult(nil), m.rankings[jobID]...), nil
}

func (m *Memory) DeleteRanking(_ context.Context, jobID, rankingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rs := m.rankings[jobID]
	for i, r := range rs {
		if r.ID == rankingID {
			m.rankings[jobID] = append(rs[:i], rs[i+1:]...)
			break
		}
	}
	if len(m.rankings[jobID]) == 0 {
		delete(m.rankings, jobID)
	}
	return nil
}

// SaveRankings inserts results, skipping ids that are already stored.
func (m *Memory) SaveRankings(_ context.Context, jobID string, results []types.RankingResult) ([]types.RankingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := make(map[string]bool, len(m.rankings[jobID]))
	for _, r := range m.rankings[jobID] {
		existing[r.ID] = true
	}

	saved := make([]types.RankingResult, 0, len(results))
	for _, r := range results {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = m.now().UTC()
		}
		r.JobID = jobID
		if !existing[r.ID] {
			m.rankings[jobID] = append(m.rankings[jobID], r)
			existing[r.ID] = true
		}
		saved = append(saved, r)
	}
	return saved, nil
}

// RankingCount returns the stored number of rankings for a job, including
// rankings whose job no longer exists.
func (m *Memory) RankingCount(jobID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rankings[jobID])
}
