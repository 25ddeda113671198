package pipeline

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resumexpert/internal/api"
	"github.com/jonathan/resumexpert/internal/pipeline/steps"
	"github.com/jonathan/resumexpert/internal/types"
)

type memUpload struct{ name string }

func (m memUpload) Name() string                 { return m.name }
func (m memUpload) Open() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("%PDF-1.4")), nil }

type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	uploadGate chan struct{} // when set, upload blocks until closed
	uploadErr  error
	analyzeErr error
	matchErr   error
	result     *types.AnalysisResult
	listings   []types.JobListing

	gotDescription string
	gotTitle       string
	gotLocation    string
	uploadCtxErr   error
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) UploadResume(ctx context.Context, file api.Upload, desc string) (*types.ExtractedText, error) {
	f.record("upload")
	f.gotDescription = desc
	if f.uploadGate != nil {
		<-f.uploadGate
	}
	f.uploadCtxErr = ctx.Err()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &types.ExtractedText{ResumeText: "resume text", JobDescText: desc}, nil
}

func (f *fakeBackend) Analyze(_ context.Context, text types.ExtractedText) (*types.AnalysisResult, error) {
	f.record("analyze")
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.result, nil
}

func (f *fakeBackend) MatchJobs(_ context.Context, title, location string) ([]types.JobListing, error) {
	f.record("match")
	f.gotTitle = title
	f.gotLocation = location
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	return f.listings, nil
}

func analysisWithBestMatch(title string) *types.AnalysisResult {
	r := &types.AnalysisResult{
		MatchScore:            72,
		MissingKeywords:       []string{},
		ExtraKeywordsToAdd:    []string{},
		SuggestedImprovements: []string{},
		CareerRecommendations: types.CareerRecommendations{OtherCareers: []types.Career{}},
	}
	if title != "" {
		r.CareerRecommendations.BestMatch = &types.Career{Title: title}
	}
	return r
}

func validInput() Input {
	return Input{Resume: memUpload{name: "cv.pdf"}, JobDescription: "  Senior Go engineer  "}
}

func TestRun_HappyPath(t *testing.T) {
	backend := &fakeBackend{
		result:   analysisWithBestMatch("Backend Engineer"),
		listings: []types.JobListing{{Title: "Go Developer"}},
	}

	var events []ProgressEvent
	o := New(backend, Options{OnProgress: func(ev ProgressEvent) { events = append(events, ev) }})

	out, err := o.Run(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, []string{"upload", "analyze", "match"}, backend.callLog())
	assert.Equal(t, "Senior Go engineer", backend.gotDescription)
	assert.Equal(t, "Backend Engineer", backend.gotTitle)
	assert.Equal(t, "", backend.gotLocation, "default location is empty")
	assert.Equal(t, 72, out.Analysis.MatchScore)
	assert.Equal(t, "Backend Engineer", out.MatchedTitle)
	assert.Len(t, out.JobListings, 1)
	assert.False(t, o.IsAnalyzing())

	require.Len(t, events, 6)
	for i, stage := range steps.Order {
		assert.Equal(t, stage, events[2*i].Stage)
		assert.Equal(t, StatusStarted, events[2*i].Status)
		assert.Equal(t, StatusCompleted, events[2*i+1].Status)
	}
}

func TestRun_LocationFromOptionsAndInput(t *testing.T) {
	backend := &fakeBackend{result: analysisWithBestMatch("SRE")}
	o := New(backend, Options{Location: "Berlin"})

	_, err := o.Run(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "Berlin", backend.gotLocation)

	in := validInput()
	in.Location = "Lisbon"
	_, err = o.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", backend.gotLocation)
}

func TestRun_ValidationBeforeNetwork(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		field string
	}{
		{"empty description", Input{Resume: memUpload{name: "cv.pdf"}, JobDescription: "   "}, "job_description"},
		{"no resume", Input{JobDescription: "Go"}, "resume"},
		{"non-pdf path", Input{ResumePath: filepath.Join("..", "resumes", "testdata", "resume.txt"), JobDescription: "Go"}, "resume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			o := New(backend, Options{})

			out, err := o.Run(context.Background(), tt.input)
			assert.Nil(t, out)
			var vErr *types.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Empty(t, backend.callLog())
		})
	}
}

func TestRun_ResumePath(t *testing.T) {
	backend := &fakeBackend{result: analysisWithBestMatch("")}
	o := New(backend, Options{})

	_, err := o.Run(context.Background(), Input{
		ResumePath:     filepath.Join("..", "resumes", "testdata", "resume.pdf"),
		JobDescription: "Go",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"upload", "analyze"}, backend.callLog())
}

func TestRun_ShortCircuitOnStageFailure(t *testing.T) {
	cause := errors.New("HTTP 500")
	tests := []struct {
		name      string
		backend   *fakeBackend
		stage     string
		wantCalls []string
	}{
		{"upload fails", &fakeBackend{uploadErr: cause}, steps.StageUpload, []string{"upload"}},
		{"analyze fails", &fakeBackend{analyzeErr: cause}, steps.StageAnalyze, []string{"upload", "analyze"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var last ProgressEvent
			o := New(tt.backend, Options{OnProgress: func(ev ProgressEvent) { last = ev }})

			out, err := o.Run(context.Background(), validInput())
			assert.Nil(t, out)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAnalysisFailed)
			assert.ErrorIs(t, err, cause)

			var pErr *Error
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, tt.stage, pErr.Stage)
			assert.Equal(t, "Failed to analyze resume. Please try again.", pErr.UserMessage())

			assert.Equal(t, tt.wantCalls, tt.backend.callLog())
			assert.Equal(t, StatusFailed, last.Status)
			assert.False(t, o.IsAnalyzing())
		})
	}
}

func TestRun_MatchFailureDegrades(t *testing.T) {
	backend := &fakeBackend{result: analysisWithBestMatch("Data Analyst"), matchErr: errors.New("timeout")}
	var statuses []string
	o := New(backend, Options{OnProgress: func(ev ProgressEvent) { statuses = append(statuses, ev.Status) }})

	out, err := o.Run(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, 72, out.Analysis.MatchScore)
	assert.NotNil(t, out.JobListings)
	assert.Empty(t, out.JobListings)
	assert.Equal(t, "Data Analyst", out.MatchedTitle)
	assert.Equal(t, StatusDegraded, statuses[len(statuses)-1])
}

func TestRun_NoBestMatchSkipsMatching(t *testing.T) {
	backend := &fakeBackend{result: analysisWithBestMatch("")}
	o := New(backend, Options{})

	out, err := o.Run(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, []string{"upload", "analyze"}, backend.callLog())
	assert.Empty(t, out.JobListings)
	assert.NotNil(t, out.JobListings)
	assert.Empty(t, out.MatchedTitle)
}

func TestRun_SingleFlight(t *testing.T) {
	backend := &fakeBackend{result: analysisWithBestMatch(""), uploadGate: make(chan struct{})}
	o := New(backend, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), validInput())
		done <- err
	}()

	require.Eventually(t, o.IsAnalyzing, time.Second, time.Millisecond)

	_, err := o.Run(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrAnalysisInProgress)

	close(backend.uploadGate)
	require.NoError(t, <-done)
	assert.False(t, o.IsAnalyzing())
	assert.Equal(t, []string{"upload", "analyze"}, backend.callLog())
}

func TestRun_DetachedFromCallerCancellation(t *testing.T) {
	backend := &fakeBackend{result: analysisWithBestMatch(""), uploadGate: make(chan struct{})}
	o := New(backend, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := o.Run(ctx, validInput())
		done <- err
	}()

	require.Eventually(t, o.IsAnalyzing, time.Second, time.Millisecond)
	cancel()
	close(backend.uploadGate)

	require.NoError(t, <-done)
	assert.NoError(t, backend.uploadCtxErr)
	assert.Equal(t, []string{"upload", "analyze"}, backend.callLog())
}
