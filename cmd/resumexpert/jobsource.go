package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/resumexpert/internal/fetch"
)

// jobSource is where a job description comes from. Exactly one field is set.
type jobSource struct {
	File string
	Text string
	URL  string
}

// jobText is a resolved job description with the title the source suggests.
type jobText struct {
	Title       string
	Description string
}

func (s jobSource) validate() error {
	set := 0
	for _, v := range []string{s.File, s.Text, s.URL} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	switch set {
	case 0:
		return fmt.Errorf("one of --job, --job-text or --job-url must be provided")
	case 1:
		return nil
	default:
		return fmt.Errorf("--job, --job-text and --job-url are mutually exclusive; provide only one")
	}
}

// resolve reads the description from its source.
func (s jobSource) resolve(ctx context.Context, a *app) (*jobText, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	switch {
	case s.File != "":
		data, err := os.ReadFile(s.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read job description: %w", err)
		}
		return &jobText{Description: strings.TrimSpace(string(data))}, nil
	case s.Text != "":
		return &jobText{Description: strings.TrimSpace(s.Text)}, nil
	default:
		opts := fetch.Options{Logger: a.log, ForceBrowser: a.cfg.UseBrowser}
		if a.cfg.UseBrowser {
			opts.Render = fetch.ChromeRenderer(fetch.DefaultTimeout)
		}
		posting, err := fetch.JobPosting(ctx, s.URL, opts)
		if err != nil {
			return nil, err
		}
		a.log.WithField("board", posting.Board).WithField("rendered", posting.Rendered).Debug("job posting fetched")
		return &jobText{Title: posting.Title, Description: posting.Description}, nil
	}
}
