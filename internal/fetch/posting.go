package fetch

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/resumexpert/internal/observability"
)

// MinDescriptionLength is the shortest extracted text accepted without
// falling back to browser rendering.
const MinDescriptionLength = 300

// Posting is a job posting scraped from a URL.
type Posting struct {
	URL         string
	Board       Board
	Title       string
	Description string
	Rendered    bool
}

// Options configures JobPosting.
type Options struct {
	HTTPClient *http.Client
	// Render is used when plain HTML yields too little text. Nil disables it.
	Render Renderer
	// ForceBrowser skips the plain HTTP attempt.
	ForceBrowser bool
	Logger       logrus.FieldLogger
}

// JobPosting loads a posting and extracts its title and description text.
func JobPosting(ctx context.Context, rawURL string, opts Options) (*Posting, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	log := observability.Component(opts.Logger, "fetch").WithField("url", u.String())

	board := DetectBoard(u.String())
	posting := &Posting{URL: u.String(), Board: board}
	useBrowser := opts.Render != nil && (opts.ForceBrowser || board.RequiresBrowser())

	if !useBrowser {
		page, err := Get(ctx, opts.HTTPClient, u.String())
		if err != nil {
			return nil, err
		}
		if err := posting.fill(page.HTML); err != nil {
			return nil, err
		}
		if !tooShort(posting.Description) || opts.Render == nil {
			return posting.validate()
		}
		log.WithField("chars", len(posting.Description)).Debug("description too short, rendering in browser")
	}

	html, err := opts.Render(ctx, u.String())
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to render page", Cause: err}
	}
	posting.Rendered = true
	if err := posting.fill(html); err != nil {
		return nil, err
	}
	return posting.validate()
}

func (p *Posting) fill(html string) error {
	text, err := ExtractText(html, p.Board.ContentSelectors(), p.Board.NoiseSelectors())
	if err != nil {
		return &Error{URL: p.URL, Message: "failed to extract text", Cause: err}
	}
	p.Description = text
	p.Title = ExtractTitle(html)
	return nil
}

func (p *Posting) validate() (*Posting, error) {
	if strings.TrimSpace(p.Description) == "" {
		return nil, &Error{URL: p.URL, Message: "page has no readable job description"}
	}
	return p, nil
}

func tooShort(text string) bool {
	return len(strings.TrimSpace(text)) < MinDescriptionLength
}
