// Package batch submits a set of resumes for ranking against one job and
// tracks each file through upload, processing and completion.
package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/resumexpert/internal/api"
	"github.com/jonathan/resumexpert/internal/notify"
	"github.com/jonathan/resumexpert/internal/observability"
	"github.com/jonathan/resumexpert/internal/resumes"
	"github.com/jonathan/resumexpert/internal/types"
)

// Ranker submits files to the rank endpoint.
type Ranker interface {
	RankResumes(ctx context.Context, jobID string, files []api.Upload, hooks api.RankHooks) ([]types.RankingResult, error)
}

// Store receives the merged rankings.
type Store interface {
	MergeRankings(ctx context.Context, jobID string, results []types.RankingResult) ([]types.RankingResult, error)
	Job(jobID string) (types.Job, bool)
}

// Result is the outcome of one Process call.
type Result struct {
	Items     []types.BatchItem
	Rankings  []types.RankingResult
	Completed int
	Failed    int
}

// Options configures a Workflow.
type Options struct {
	// OnUpdate receives every item state change, in file order.
	OnUpdate func(item types.BatchItem)
	// OnComplete is signaled after rankings are merged.
	OnComplete func(res Result)
	Notifier   notify.Notifier
	Logger     logrus.FieldLogger
}

type entry struct {
	item types.BatchItem
	file *resumes.File
}

// Workflow is a batch of resumes bound to one job.
type Workflow struct {
	jobID  string
	ranker Ranker
	store  Store
	opts   Options
	log    logrus.FieldLogger

	processing atomic.Bool

	mu      sync.Mutex
	entries []*entry
}

// New creates an empty batch for jobID.
func New(jobID string, ranker Ranker, store Store, opts Options) *Workflow {
	return &Workflow{
		jobID:  jobID,
		ranker: ranker,
		store:  store,
		opts:   opts,
		log:    observability.Component(opts.Logger, "batch").WithField("job_id", jobID),
	}
}

// Add queues the PDF files among paths. Anything else is returned as a
// rejection and does not join the batch.
func (w *Workflow) Add(paths ...string) ([]types.BatchItem, []resumes.Rejection, error) {
	if w.processing.Load() {
		return nil, nil, ErrBatchInProgress
	}

	files, rejected := resumes.Partition(paths)
	for _, r := range rejected {
		w.log.WithField("path", r.Path).WithError(r.Err).Warn("file rejected")
	}

	added := make([]types.BatchItem, 0, len(files))
	w.mu.Lock()
	for _, f := range files {
		e := &entry{
			item: types.BatchItem{
				ID:       uuid.NewString(),
				Filename: f.Name(),
				Path:     f.Path,
				Size:     f.Size,
				Status:   types.StatusPending,
			},
			file: f,
		}
		w.entries = append(w.entries, e)
		added = append(added, e.item)
	}
	w.mu.Unlock()

	return added, rejected, nil
}

// Remove drops an item that has not been processed yet.
func (w *Workflow) Remove(id string) error {
	if w.processing.Load() {
		return ErrBatchInProgress
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for i, e := range w.entries {
		if e.item.ID == id {
			w.entries = append(w.entries[:i], w.entries[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// Items returns a snapshot of every item in file order.
func (w *Workflow) Items() []types.BatchItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	items := make([]types.BatchItem, len(w.entries))
	for i, e := range w.entries {
		items[i] = e.item
	}
	return items
}

// Processing reports whether a Process call is in flight.
func (w *Workflow) Processing() bool {
	return w.processing.Load()
}

// Process submits every pending file in one request, merges the returned
// rankings into the store and signals completion.
func (w *Workflow) Process(ctx context.Context) (*Result, error) {
	if !w.processing.CompareAndSwap(false, true) {
		return nil, ErrBatchInProgress
	}
	defer w.processing.Store(false)

	pending := w.pending()
	if len(pending) == 0 {
		return nil, ErrEmptyBatch
	}

	uploads := make([]api.Upload, len(pending))
	for i, e := range pending {
		uploads[i] = e.file
	}

	hooks := api.RankHooks{
		FileSent: func(i int) {
			w.advance(pending[i], types.StatusUploaded, nil, "")
		},
		BodySent: func() {
			for _, e := range pending {
				w.advance(e, types.StatusProcessing, nil, "")
			}
		},
	}

	w.log.WithField("files", len(pending)).Info("submitting batch")
	rankings, err := w.ranker.RankResumes(ctx, w.jobID, uploads, hooks)
	if err != nil {
		for _, e := range pending {
			w.advance(e, types.StatusFailed, nil, err.Error())
		}
		w.log.WithError(err).Error("batch failed")
		return w.result(pending, nil), fmt.Errorf("failed to rank resumes: %w", err)
	}

	ordered := w.assign(pending, rankings)

	merged, err := w.store.MergeRankings(ctx, w.jobID, ordered)
	if err != nil {
		return w.result(pending, ordered), fmt.Errorf("failed to merge rankings: %w", err)
	}

	res := w.result(pending, merged)
	w.log.WithFields(logrus.Fields{
		"completed": res.Completed,
		"failed":    res.Failed,
	}).Info("batch completed")

	if w.opts.OnComplete != nil {
		w.opts.OnComplete(*res)
	}
	if w.opts.Notifier != nil {
		if err := w.opts.Notifier.BatchCompleted(ctx, w.summary(res)); err != nil {
			w.log.WithError(err).Warn("completion notification failed")
		}
	}
	return res, nil
}

func (w *Workflow) pending() []*entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []*entry
	for _, e := range w.entries {
		if e.item.Status == types.StatusPending {
			out = append(out, e)
		}
	}
	return out
}

// advance applies a monotonic transition and reports it. Transitions that
// would move backwards are ignored.
func (w *Workflow) advance(e *entry, next types.ItemStatus, result *types.RankingResult, reason string) {
	w.mu.Lock()
	if !e.item.Status.CanAdvanceTo(next) {
		w.mu.Unlock()
		return
	}
	e.item.Status = next
	e.item.Result = result
	e.item.Error = reason
	item := e.item
	w.mu.Unlock()

	if w.opts.OnUpdate != nil {
		w.opts.OnUpdate(item)
	}
}

// assign matches rankings to files by filename, settles every file in file
// order and returns the rankings sorted for merging: score descending, then
// submission order, then response order. Files left unmatched after the name
// pass are paired with unclaimed rankings by position, since the backend may
// normalize upload names.
func (w *Workflow) assign(pending []*entry, rankings []types.RankingResult) []types.RankingResult {
	byName := map[string][]int{}
	for i, r := range rankings {
		byName[r.Filename] = append(byName[r.Filename], i)
	}

	submitted := make([]int, len(rankings))
	for i := range submitted {
		submitted[i] = len(pending)
	}
	claimed := make([]int, len(pending))

	for fi, e := range pending {
		claimed[fi] = -1
		queue := byName[e.item.Filename]
		if len(queue) == 0 {
			continue
		}
		claimed[fi] = queue[0]
		byName[e.item.Filename] = queue[1:]
		submitted[queue[0]] = fi
	}

	next := 0
	for fi := range pending {
		if claimed[fi] >= 0 {
			continue
		}
		for next < len(rankings) && submitted[next] != len(pending) {
			next++
		}
		if next == len(rankings) {
			break
		}
		claimed[fi] = next
		submitted[next] = fi
		next++
	}

	for fi, e := range pending {
		if claimed[fi] < 0 {
			w.advance(e, types.StatusFailed, nil, ErrNoRanking.Error())
			continue
		}
		r := rankings[claimed[fi]]
		w.advance(e, types.StatusCompleted, &r, "")
	}

	order := make([]int, len(rankings))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := order[a], order[b]
		if rankings[ra].Score != rankings[rb].Score {
			return rankings[ra].Score > rankings[rb].Score
		}
		if submitted[ra] != submitted[rb] {
			return submitted[ra] < submitted[rb]
		}
		return ra < rb
	})

	sorted := make([]types.RankingResult, len(order))
	for i, ri := range order {
		sorted[i] = rankings[ri]
	}
	return sorted
}

func (w *Workflow) result(pending []*entry, rankings []types.RankingResult) *Result {
	res := &Result{
		Items:    make([]types.BatchItem, 0, len(pending)),
		Rankings: rankings,
	}
	if res.Rankings == nil {
		res.Rankings = []types.RankingResult{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range pending {
		res.Items = append(res.Items, e.item)
		switch e.item.Status {
		case types.StatusCompleted:
			res.Completed++
		case types.StatusFailed:
			res.Failed++
		}
	}
	return res
}

func (w *Workflow) summary(res *Result) notify.Summary {
	job, ok := w.store.Job(w.jobID)
	if !ok {
		job = types.Job{ID: w.jobID}
	}
	return notify.Summary{
		Job:       job,
		Completed: res.Completed,
		Failed:    res.Failed,
		Top:       res.Rankings,
	}
}
