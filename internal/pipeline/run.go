// Package pipeline orchestrates the resume analysis workflow: upload, analyze,
// then search for jobs matching the recommended career.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/resumexpert/internal/api"
	"github.com/jonathan/resumexpert/internal/observability"
	"github.com/jonathan/resumexpert/internal/pipeline/steps"
	"github.com/jonathan/resumexpert/internal/resumes"
	"github.com/jonathan/resumexpert/internal/types"
)

// Progress statuses.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusDegraded  = "degraded"
	StatusFailed    = "failed"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Stage    string `json:"stage"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Backend is the remote surface the pipeline drives.
type Backend interface {
	UploadResume(ctx context.Context, file api.Upload, jobDescription string) (*types.ExtractedText, error)
	Analyze(ctx context.Context, text types.ExtractedText) (*types.AnalysisResult, error)
	MatchJobs(ctx context.Context, title, location string) ([]types.JobListing, error)
}

// Input is one analysis request. Either Resume or ResumePath must be set.
type Input struct {
	Resume         api.Upload
	ResumePath     string
	JobDescription string
	Location       string
}

// Output is the result of a completed run. JobListings is never nil.
type Output struct {
	Analysis     *types.AnalysisResult `json:"analysis_result"`
	JobListings  []types.JobListing    `json:"job_listings"`
	MatchedTitle string                `json:"matched_title,omitempty"`
}

// Options configures an Orchestrator.
type Options struct {
	// Location is used for job matching when the input has none.
	Location   string
	OnProgress ProgressCallback
	Logger     logrus.FieldLogger
}

// Orchestrator runs at most one analysis at a time.
type Orchestrator struct {
	backend    Backend
	location   string
	onProgress ProgressCallback
	log        logrus.FieldLogger

	running atomic.Bool
}

// New creates an orchestrator over backend.
func New(backend Backend, opts Options) *Orchestrator {
	return &Orchestrator{
		backend:    backend,
		location:   opts.Location,
		onProgress: opts.OnProgress,
		log:        observability.Component(opts.Logger, "pipeline"),
	}
}

// IsAnalyzing reports whether a run is in flight.
func (o *Orchestrator) IsAnalyzing() bool {
	return o.running.Load()
}

// emitProgress calls the progress callback if configured
func (o *Orchestrator) emitProgress(def steps.StageDefinition, status, message string) {
	if o.onProgress != nil {
		o.onProgress(ProgressEvent{
			Stage:    def.Name,
			Category: def.Category,
			Status:   status,
			Message:  message,
		})
	}
}

// runState carries values between stages of one run.
type runState struct {
	resume      api.Upload
	description string
	location    string
	text        *types.ExtractedText
	out         *Output
}

// Run executes upload, analyze and job matching in order. Invalid input is
// rejected before any network call. Once started, the run is detached from
// ctx cancellation and finishes or fails on its own.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Output, error) {
	st, err := o.prepare(in)
	if err != nil {
		return nil, err
	}

	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrAnalysisInProgress
	}
	defer o.running.Store(false)

	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	completed := make(map[string]bool, len(steps.Order))

	for _, name := range steps.Order {
		def, err := steps.Lookup(name)
		if err != nil {
			return nil, err
		}
		if err := steps.ValidateDependencies(name, completed); err != nil {
			return nil, err
		}

		log := o.log.WithField("stage", name)
		o.emitProgress(def, StatusStarted, def.StartMessage)
		stageStart := time.Now()

		msg, skipped, err := o.runStage(ctx, name, st)
		switch {
		case err != nil && def.Degradable:
			log.WithError(err).Warn("stage failed, continuing without its results")
			o.emitProgress(def, StatusDegraded, "No job listings available")
		case err != nil:
			log.WithError(err).Error("stage failed")
			o.emitProgress(def, StatusFailed, UserMessage)
			return nil, &Error{Stage: name, Cause: err}
		case skipped:
			log.Debug("stage skipped")
			o.emitProgress(def, StatusSkipped, msg)
		default:
			log.WithField("duration", time.Since(stageStart).Round(time.Millisecond)).Debug("stage complete")
			o.emitProgress(def, StatusCompleted, msg)
		}
		completed[name] = true
	}

	o.log.WithFields(logrus.Fields{
		"match_score": st.out.Analysis.MatchScore,
		"listings":    len(st.out.JobListings),
		"duration":    time.Since(start).Round(time.Millisecond),
	}).Info("analysis complete")
	return st.out, nil
}

// runStage executes one stage, returning a completion message or whether it was skipped.
func (o *Orchestrator) runStage(ctx context.Context, name string, st *runState) (string, bool, error) {
	switch name {
	case steps.StageUpload:
		text, err := o.backend.UploadResume(ctx, st.resume, st.description)
		if err != nil {
			return "", false, err
		}
		st.text = text
		return fmt.Sprintf("Extracted %d characters of resume text", len(text.ResumeText)), false, nil

	case steps.StageAnalyze:
		result, err := o.backend.Analyze(ctx, *st.text)
		if err != nil {
			return "", false, err
		}
		st.out.Analysis = result
		return fmt.Sprintf("Match score %d%%", result.MatchScore), false, nil

	case steps.StageMatchJobs:
		title := st.out.Analysis.BestMatchTitle()
		if title == "" {
			return "No career recommendation to search for", true, nil
		}
		st.out.MatchedTitle = title
		listings, err := o.backend.MatchJobs(ctx, title, st.location)
		if err != nil {
			return "", false, err
		}
		if listings != nil {
			st.out.JobListings = listings
		}
		return fmt.Sprintf("Found %d positions for %s", len(st.out.JobListings), title), false, nil
	}
	return "", false, fmt.Errorf("no handler for stage %s", name)
}

// prepare validates the input and resolves the resume file.
func (o *Orchestrator) prepare(in Input) (*runState, error) {
	description := strings.TrimSpace(in.JobDescription)
	if description == "" {
		return nil, &types.ValidationError{Field: "job_description", Message: "must not be empty"}
	}

	resume := in.Resume
	if resume == nil {
		if in.ResumePath == "" {
			return nil, &types.ValidationError{Field: "resume", Message: "a PDF resume is required"}
		}
		f, err := resumes.Open(in.ResumePath)
		if err != nil {
			return nil, &types.ValidationError{Field: "resume", Message: err.Error()}
		}
		resume = f
	}

	location := strings.TrimSpace(in.Location)
	if location == "" {
		location = o.location
	}

	return &runState{
		resume:      resume,
		description: description,
		location:    location,
		out:         &Output{JobListings: []types.JobListing{}},
	}, nil
}
