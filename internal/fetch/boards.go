package fetch

import (
	"net/url"
	"strings"
)

// Board is a job board or applicant tracking system.
type Board string

const (
	BoardGreenhouse Board = "greenhouse"
	BoardLever      Board = "lever"
	BoardWorkday    Board = "workday"
	BoardAshby      Board = "ashby"
	BoardGeneric    Board = "generic"
)

var boardHosts = []struct {
	suffix string
	board  Board
}{
	{"greenhouse.io", BoardGreenhouse},
	{"lever.co", BoardLever},
	{"myworkdayjobs.com", BoardWorkday},
	{"workday.com", BoardWorkday},
	{"ashbyhq.com", BoardAshby},
}

// DetectBoard identifies the board hosting a posting URL.
func DetectBoard(rawURL string) Board {
	u, err := url.Parse(rawURL)
	if err != nil {
		return BoardGeneric
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range boardHosts {
		if host == h.suffix || strings.HasSuffix(host, "."+h.suffix) {
			return h.board
		}
	}
	return BoardGeneric
}

// RequiresBrowser reports boards whose postings are rendered client-side.
func (b Board) RequiresBrowser() bool {
	return b == BoardWorkday || b == BoardAshby
}

// ContentSelectors lists where the posting body lives, most specific first.
func (b Board) ContentSelectors() []string {
	generic := []string{
		".job-description",
		"#job-description",
		".job-details",
		".posting-content",
		"[data-testid='job-description']",
		"main",
		"article",
		"#content",
	}
	switch b {
	case BoardGreenhouse:
		return append([]string{".job__description", "#content .body", ".job-post"}, generic...)
	case BoardLever:
		return append([]string{".posting-page .section-wrapper", ".posting-description"}, generic...)
	case BoardWorkday:
		return append([]string{"[data-automation-id='jobPostingDescription']", "[data-automation-id='jobDescription']"}, generic...)
	case BoardAshby:
		return append([]string{"[class*='descriptionText']"}, generic...)
	default:
		return generic
	}
}

// NoiseSelectors lists application forms and legal boilerplate to strip.
func (b Board) NoiseSelectors() []string {
	noise := []string{
		"form",
		".application-form",
		"#application-form",
		".apply-button-container",
		".eeo-statement",
		".voluntary-disclosure",
		".social-share",
		".cookie-consent",
	}
	switch b {
	case BoardGreenhouse:
		return append(noise, ".application--wrapper", "#usa_self_id_section")
	case BoardLever:
		return append(noise, ".posting-apply", ".lever-application-form")
	case BoardWorkday:
		return append(noise, "[data-automation-id='applyButton']")
	default:
		return noise
	}
}
