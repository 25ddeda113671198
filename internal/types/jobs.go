package types

import (
	"strings"
	"time"
)

// Job is a stored job posting used as the ranking target.
// ResumeCount is derived: it mirrors the number of rankings owned by the job.
type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	ResumeCount int       `json:"resume_count"`
}

// JobInput carries the user-supplied fields for a new job.
type JobInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewJobInput trims the raw fields.
func NewJobInput(title, description string) JobInput {
	return JobInput{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	}
}

// Validate rejects empty fields.
func (in *JobInput) Validate() error {
	if in.Title == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if in.Description == "" {
		return &ValidationError{Field: "description", Message: "must not be empty"}
	}
	return nil
}

// RankingResult is the scored outcome of one resume against one job.
type RankingResult struct {
	ID            string    `json:"id"`
	JobID         string    `json:"job_id"`
	CandidateName string    `json:"candidate_name"`
	Score         int       `json:"score"`
	Summary       string    `json:"summary"`
	Filename      string    `json:"filename"`
	CreatedAt     time.Time `json:"created_at"`
}

// ScoreBand buckets a 0-100 score the way results are presented.
func ScoreBand(score int) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 80:
		return "strong"
	case score >= 70:
		return "fair"
	default:
		return "weak"
	}
}
