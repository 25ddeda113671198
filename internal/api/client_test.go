package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resumexpert/internal/types"
)

// memUpload is an in-memory Upload.
type memUpload struct {
	name    string
	content string
	openErr error
}

func (m memUpload) Name() string { return m.name }

func (m memUpload) Open() (io.ReadCloser, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return io.NopCloser(strings.NewReader(m.content)), nil
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts := DefaultOptions()
	opts.ProbeTimeout = 200 * time.Millisecond
	c, err := New(srv.URL, opts)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("not a url", nil)
	assert.Error(t, err)

	c, err := New("http://example.com/base", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/base/", c.BaseURL())
	assert.Equal(t, "http://example.com/base/api/jobs/j1", c.endpoint("api", "jobs", "j1"))
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		delay  time.Duration
		want   bool
	}{
		{name: "ready", status: 200, body: `{"status": "OK"}`, want: true},
		{name: "not ready status", status: 200, body: `{"status": "STARTING"}`},
		{name: "malformed body", status: 200, body: `<html>waking up</html>`},
		{name: "missing field", status: 200, body: `{}`},
		{name: "server error", status: 503, body: `{"status": "OK"}`},
		{name: "probe timeout", status: 200, body: `{"status": "OK"}`, delay: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/", r.URL.Path)
				if tt.delay > 0 {
					select {
					case <-time.After(tt.delay):
					case <-r.Context().Done():
						return
					}
				}
				writeJSON(w, tt.status, tt.body)
			}))

			assert.Equal(t, tt.want, c.CheckHealth(context.Background()))
		})
	}
}

func TestLogin_UsernameEcho(t *testing.T) {
	var got types.Credentials
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		writeJSON(w, 200, `{"username": "alice_01"}`)
	}))

	name, err := c.Login(context.Background(), types.Credentials{Username: "alice_01", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "alice_01", name)
	assert.Equal(t, "password1", got.Password)

	cookies := c.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
}

func TestLogin_NoEcho(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"message": "Login successful"}`)
	}))

	name, err := c.Login(context.Background(), types.Credentials{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestLogin_Rejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, `{"error": "Invalid credentials"}`)
	}))

	_, err := c.Login(context.Background(), types.Credentials{Username: "alice", Password: "password1"})
	require.Error(t, err)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, 401, remote.StatusCode)
	assert.Equal(t, "Invalid credentials", remote.Message)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCheckSession(t *testing.T) {
	body := `{"username": "alice"}`
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/check-session", r.URL.Path)
		writeJSON(w, 200, body)
	}))

	name, err := c.CheckSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	body = `{}`
	name, err = c.CheckSession(context.Background())
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestJobsCRUD(t *testing.T) {
	var deleted []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/jobs", func(w http.ResponseWriter, r *http.Request) {
		var in types.JobInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Backend Engineer", in.Title)
		writeJSON(w, 201, `{"id": 42, "title": "Backend Engineer", "description": "Go", "created_at": "Tue, 07 May 2024 10:00:00 GMT"}`)
	})
	mux.HandleFunc("GET /api/jobs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"jobs": [{"id": "42", "title": "Backend Engineer", "description": "Go", "created_at": "2024-05-07T10:00:00Z"}]}`)
	})
	mux.HandleFunc("DELETE /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = append(deleted, r.PathValue("id"))
		if r.PathValue("id") == "gone" {
			writeJSON(w, 404, `{"error": "Job not found"}`)
			return
		}
		w.WriteHeader(204)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	job, err := c.CreateJob(ctx, types.JobInput{Title: "Backend Engineer", Description: "Go"})
	require.NoError(t, err)
	assert.Equal(t, "42", job.ID)
	assert.Equal(t, 2024, job.CreatedAt.Year())

	jobs, err := c.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "42", jobs[0].ID)
	assert.Equal(t, time.May, jobs[0].CreatedAt.Month())

	require.NoError(t, c.DeleteJob(ctx, "42"))
	require.NoError(t, c.DeleteJob(ctx, "gone"), "deleting a missing job is a no-op")
	assert.Equal(t, []string{"42", "gone"}, deleted)

	err = c.DeleteJob(ctx, "")
	var vErr *types.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestListJobs_Malformed(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `[{"id": 1}]`)
	}))

	_, err := c.ListJobs(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestRankings(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/jobs/{id}/rankings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `[{"id": 7, "candidate_name": "Ada", "score": 94.6, "summary": "s", "filename": "ada.pdf"}]`)
	})
	mux.HandleFunc("DELETE /api/jobs/{id}/rankings/{rid}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, `{"error": "not found"}`)
	})
	c := newTestClient(t, mux)

	rankings, err := c.ListRankings(context.Background(), "j1")
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, "7", rankings[0].ID)
	assert.Equal(t, "j1", rankings[0].JobID)
	assert.Equal(t, 95, rankings[0].Score)

	assert.NoError(t, c.DeleteRanking(context.Background(), "j1", "7"))
}

func TestRankings_ScoreOutOfRange(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `[{"id": 1, "score": 140}]`)
	}))

	_, err := c.ListRankings(context.Background(), "j1")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestUploadResume(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Senior Go role", r.FormValue("job_desc"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "cv.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.4 body", string(data))

		writeJSON(w, 200, `{"resume_text": "resume words", "job_desc_text": "Senior Go role"}`)
	}))

	out, err := c.UploadResume(context.Background(), memUpload{name: "cv.pdf", content: "%PDF-1.4 body"}, "Senior Go role")
	require.NoError(t, err)
	assert.Equal(t, "resume words", out.ResumeText)
	assert.Equal(t, "Senior Go role", out.JobDescText)
}

func TestAnalyze(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in types.ExtractedText
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "resume words", in.ResumeText)
		writeJSON(w, 200, `{
			"match_score": 72,
			"missing_keywords": ["None"],
			"extra_keywords_to_add": ["gRPC"],
			"suggested_improvements": ["No issues found"],
			"career_recommendations": {"best_match": {"title": "Backend Engineer", "reason": "Go"}, "other_careers": []}
		}`)
	}))

	res, err := c.Analyze(context.Background(), types.ExtractedText{ResumeText: "resume words", JobDescText: "jd"})
	require.NoError(t, err)
	assert.Equal(t, 72, res.MatchScore)
	assert.Empty(t, res.MissingKeywords)
	assert.Equal(t, []string{"gRPC"}, res.ExtraKeywordsToAdd)
	assert.Empty(t, res.SuggestedImprovements)
	assert.Equal(t, "Backend Engineer", res.BestMatchTitle())
}

func TestMatchJobs(t *testing.T) {
	body := `[{"title": "Go Developer", "company": "Acme", "location": null, "job_posted": "2 days ago",
		"employer_logo": "https://logo", "apply_options": [{"publisher": "LinkedIn", "apply_link": "https://apply"}]},
		{"title": "SRE", "company": "Beta"}]`
	var got wireMatchRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, 200, body)
	}))

	listings, err := c.MatchJobs(context.Background(), "Backend Engineer", "")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", got.JobTitle)
	assert.Equal(t, "", got.JobLocation)
	require.Len(t, listings, 2)
	assert.Equal(t, "https://apply", listings[0].ApplyOptions[0].ApplyLink)
	assert.Equal(t, "2 days ago", listings[0].PostedAt)
	assert.NotNil(t, listings[1].ApplyOptions)

	body = `{"error": "no results"}`
	listings, err = c.MatchJobs(context.Background(), "Backend Engineer", "")
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestRankResumes_StreamsAndReportsProgress(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rank-resumes/j1", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.pdf", files[0].Filename)
		assert.Equal(t, "b.pdf", files[1].Filename)
		writeJSON(w, 200, `[{"id": "r1", "candidate_name": "A", "score": 81, "filename": "a.pdf"},
			{"id": "r2", "candidate_name": "B", "score": 95, "filename": "b.pdf"}]`)
	}))

	var mu sync.Mutex
	var events []string
	record := func(e string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	files := []Upload{memUpload{name: "a.pdf", content: "%PDF a"}, memUpload{name: "b.pdf", content: "%PDF b"}}
	rankings, err := c.RankResumes(context.Background(), "j1", files, RankHooks{
		FileSent: func(i int) { record(files[i].Name()) },
		BodySent: func() { record("body") },
	})
	require.NoError(t, err)
	require.Len(t, rankings, 2)
	assert.Equal(t, "j1", rankings[0].JobID)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "body"}, events)
}

func TestRankResumes_OpenFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		writeJSON(w, 200, `[]`)
	}))

	boom := errors.New("disk gone")
	files := []Upload{memUpload{name: "a.pdf", openErr: boom}}
	_, err := c.RankResumes(context.Background(), "j1", files, RankHooks{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRankResumes_ServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		writeJSON(w, 500, `{"error": "model offline"}`)
	}))

	_, err := c.RankResumes(context.Background(), "j1", []Upload{memUpload{name: "a.pdf", content: "x"}}, RankHooks{})
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, 500, remote.StatusCode)
	assert.Equal(t, "model offline", remote.Message)
}

func TestSessionPersistence(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok", Path: "/", Expires: time.Now().Add(time.Hour)})
		writeJSON(w, 200, `{}`)
	})
	mux.HandleFunc("GET /api/check-session", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("session")
		if err != nil {
			writeJSON(w, 401, `{"error": "not logged in"}`)
			return
		}
		writeJSON(w, 200, `{"username": "user-`+ck.Value+`"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "nested", "session.json")
	ctx := context.Background()

	first, err := New(srv.URL, nil)
	require.NoError(t, err)
	_, err = first.Login(ctx, types.Credentials{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	require.NoError(t, first.SaveSession(path))

	second, err := New(srv.URL, nil)
	require.NoError(t, err)
	require.NoError(t, second.LoadSession(path))
	name, err := second.CheckSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-tok", name)

	require.NoError(t, second.ClearSession())
	_, err = second.CheckSession(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Saving an empty jar removes the file
	require.NoError(t, second.SaveSession(path))
	third, err := New(srv.URL, nil)
	require.NoError(t, err)
	require.NoError(t, third.LoadSession(path))
	assert.Empty(t, third.Cookies())
}

func TestRemoteError_Message(t *testing.T) {
	err := &RemoteError{Op: "create job", StatusCode: 500, Message: "boom"}
	assert.Equal(t, "create job failed (HTTP 500): boom", err.Error())

	err = &RemoteError{Op: "analyze", Message: "request failed", Cause: errors.New("dial tcp")}
	assert.Equal(t, "analyze failed: request failed: dial tcp", err.Error())
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad", errorMessage([]byte(`{"message": "bad"}`), "fallback"))
	assert.Equal(t, "fallback", errorMessage([]byte(`<html></html>`), "fallback"))
	assert.Equal(t, "plain text", errorMessage([]byte("plain text"), "fallback"))
}
