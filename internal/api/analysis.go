package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/jonathan/resumexpert/internal/schemas"
	"github.com/jonathan/resumexpert/internal/types"
)

// Upload is a local file that can be attached to a multipart request.
type Upload interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// UploadResume sends the resume and job description for text extraction.
func (c *Client) UploadResume(ctx context.Context, file Upload, jobDescription string) (*types.ExtractedText, error) {
	const op = "upload resume"

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := writeFilePart(mw, "file", file); err != nil {
		return nil, &RemoteError{Op: op, Message: "failed to build upload", Cause: err}
	}
	if err := mw.WriteField("job_desc", jobDescription); err != nil {
		return nil, &RemoteError{Op: op, Message: "failed to build upload", Cause: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &RemoteError{Op: op, Message: "failed to build upload", Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("upload"), &buf, mw.FormDataContentType())
	if err != nil {
		return nil, &RemoteError{Op: op, Message: "failed to create request", Cause: err}
	}
	body, err := c.send(op, req)
	if err != nil {
		return nil, err
	}

	var out types.ExtractedText
	if err := decode(op, schemas.ExtractedText, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analyze scores extracted resume text against the job description text.
func (c *Client) Analyze(ctx context.Context, text types.ExtractedText) (*types.AnalysisResult, error) {
	const op = "analyze"

	body, err := c.call(ctx, op, http.MethodPost, text, "analyze")
	if err != nil {
		return nil, err
	}
	var out types.AnalysisResult
	if err := decode(op, schemas.Analysis, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MatchJobs searches open positions for a job title. A response that is not
// a JSON array yields no listings.
func (c *Client) MatchJobs(ctx context.Context, title, location string) ([]types.JobListing, error) {
	const op = "job matching"

	body, err := c.call(ctx, op, http.MethodPost, wireMatchRequest{JobTitle: title, JobLocation: location}, "job-matching")
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		c.log.WithField("op", op).Debug("non-array job matching response, treating as empty")
		return []types.JobListing{}, nil
	}

	var listings []types.JobListing
	if err := decode(op, schemas.JobListings, trimmed, &listings); err != nil {
		return nil, err
	}
	for i := range listings {
		if listings[i].ApplyOptions == nil {
			listings[i].ApplyOptions = []types.ApplyOption{}
		}
	}
	return listings, nil
}

func writeFilePart(mw *multipart.Writer, field string, file Upload) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Name(), err)
	}
	defer func() { _ = src.Close() }()

	part, err := mw.CreateFormFile(field, file.Name())
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to read %s: %w", file.Name(), err)
	}
	return nil
}
