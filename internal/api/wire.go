package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/jonathan/resumexpert/internal/types"
)

// flexID accepts identifiers the backend emits either as strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// flexTime decodes the timestamp formats seen from the backend. Unknown
// formats decode to the zero time.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// null or a non-string value
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = flexTime(parsed)
			return nil
		}
	}
	return nil
}

type wireJob struct {
	ID          flexID   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CreatedAt   flexTime `json:"created_at"`
	ResumeCount *int     `json:"resume_count"`
}

func (w wireJob) toJob() types.Job {
	job := types.Job{
		ID:          string(w.ID),
		Title:       w.Title,
		Description: w.Description,
		CreatedAt:   time.Time(w.CreatedAt),
	}
	if w.ResumeCount != nil {
		job.ResumeCount = *w.ResumeCount
	}
	return job
}

type wireJobList struct {
	Jobs []wireJob `json:"jobs"`
}

type wireRanking struct {
	ID            flexID   `json:"id"`
	JobID         flexID   `json:"job_id"`
	CandidateName string   `json:"candidate_name"`
	Score         float64  `json:"score"`
	Summary       string   `json:"summary"`
	Filename      string   `json:"filename"`
	CreatedAt     flexTime `json:"created_at"`
}

func (w wireRanking) toRanking(jobID string) types.RankingResult {
	r := types.RankingResult{
		ID:            string(w.ID),
		JobID:         string(w.JobID),
		CandidateName: w.CandidateName,
		Score:         int(math.Round(w.Score)),
		Summary:       w.Summary,
		Filename:      w.Filename,
		CreatedAt:     time.Time(w.CreatedAt),
	}
	if r.JobID == "" {
		r.JobID = jobID
	}
	return r
}

func toRankings(jobID string, ws []wireRanking) []types.RankingResult {
	out := make([]types.RankingResult, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toRanking(jobID))
	}
	return out
}

type wireHealth struct {
	Status string `json:"status"`
}

type wireSession struct {
	Username string `json:"username"`
}

type wireMatchRequest struct {
	JobTitle    string `json:"job_title"`
	JobLocation string `json:"job_location"`
}

// errorMessage pulls a human-readable message out of an error response body.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, m := range []string{payload.Error, payload.Message, payload.Detail} {
			if m != "" {
				return m
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "<") {
		return fallback
	}
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
