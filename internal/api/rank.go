package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resumexpert/internal/schemas"
	"github.com/jonathan/resumexpert/internal/types"
)

// RankHooks observe the lifecycle of a rank request. Callbacks run on the
// body-streaming goroutine, one at a time, in file order.
type RankHooks struct {
	// FileSent fires once file i has been fully consumed by the transport.
	FileSent func(i int)
	// BodySent fires once the whole multipart body has been consumed and the
	// response is being awaited.
	BodySent func()
}

// RankResumes submits every file in one multipart request and returns the
// rankings the backend produced. The body is streamed, so hooks reflect
// real upload progress.
func (c *Client) RankResumes(ctx context.Context, jobID string, files []Upload, hooks RankHooks) ([]types.RankingResult, error) {
	const op = "rank resumes"

	if err := requireID("job", jobID); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return []types.RankingResult{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("rank-resumes", jobID), pr, mw.FormDataContentType())
	if err != nil {
		return nil, &RemoteError{Op: op, Message: "failed to create request", Cause: err}
	}

	var g errgroup.Group
	g.Go(func() error {
		err := streamRankBody(mw, files, hooks)
		if err != nil {
			_ = pw.CloseWithError(err)
			return err
		}
		return pw.Close()
	})

	body, sendErr := c.send(op, req)
	_ = pr.Close()
	streamErr := g.Wait()

	if streamErr != nil && !errors.Is(streamErr, io.ErrClosedPipe) {
		return nil, &RemoteError{Op: op, Message: "failed to stream upload", Cause: streamErr}
	}
	if sendErr != nil {
		return nil, sendErr
	}

	var ws []wireRanking
	if err := decode(op, schemas.Rankings, body, &ws); err != nil {
		return nil, err
	}
	return toRankings(jobID, ws), nil
}

func streamRankBody(mw *multipart.Writer, files []Upload, hooks RankHooks) error {
	for i, f := range files {
		if err := writeFilePart(mw, "files", f); err != nil {
			return err
		}
		if hooks.FileSent != nil {
			hooks.FileSent(i)
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	if hooks.BodySent != nil {
		hooks.BodySent()
	}
	return nil
}
