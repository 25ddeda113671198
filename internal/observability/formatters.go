// Package observability provides logging setup and formatted output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resumexpert/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, ending with "..." when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeList renders up to limit items as bullets followed by a "more" line.
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", truncate(items[i], 50)))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
	sb.WriteString("\n")
}

// PrintAnalysis outputs the match score, keyword gaps, improvements and career recommendations.
func (p *Printer) PrintAnalysis(result *types.AnalysisResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Match score: %d%% (%s)\n\n", result.MatchScore, types.ScoreBand(result.MatchScore)))

	writeList(&sb, "Missing keywords", result.MissingKeywords, maxItemsToShow)
	writeList(&sb, "Keywords to add", result.ExtraKeywordsToAdd, maxItemsToShow)
	writeList(&sb, "Suggested improvements", result.SuggestedImprovements, maxItemsToShow)

	recs := result.CareerRecommendations
	if recs.BestMatch != nil {
		sb.WriteString(fmt.Sprintf("Best match: %s\n", recs.BestMatch.Title))
		if recs.BestMatch.Reason != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", truncate(recs.BestMatch.Reason, 52)))
		}
		sb.WriteString("\n")
	}
	if len(recs.OtherCareers) > 0 {
		titles := make([]string, 0, len(recs.OtherCareers))
		for _, c := range recs.OtherCareers {
			titles = append(titles, c.Title)
		}
		writeList(&sb, "Other careers", titles, 3)
	}

	p.printBox("RESUME ANALYSIS", strings.TrimSuffix(sb.String(), "\n\n"))
}

// PrintJobListings outputs open positions matching the recommended title.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintJobListings(title string, listings []types.JobListing) {
	if len(listings) == 0 {
		if title != "" {
			fmt.Fprintf(p.out, "No open positions found for %q.\n", title)
		}
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d positions for %q:\n\n", len(listings), title))

	count := min(len(listings), maxItemsToShow)
	for i := 0; i < count; i++ {
		l := listings[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, l.Title))
		sb.WriteString(fmt.Sprintf("    %s", l.Company))
		if l.Location != "" {
			sb.WriteString(fmt.Sprintf(" · %s", l.Location))
		}
		sb.WriteString("\n")
		if l.PostedAt != "" {
			sb.WriteString(fmt.Sprintf("    Posted: %s\n", l.PostedAt))
		}
		if len(l.ApplyOptions) > 0 {
			sb.WriteString(fmt.Sprintf("    Apply via %s\n", l.ApplyOptions[0].Publisher))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(listings) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more positions", len(listings)-maxItemsToShow))
	}

	p.printBox("MATCHING JOBS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJobs outputs the job postings with their ranked resume counts.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintJobs(jobs []types.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(p.out, "No jobs yet. Create one with `resumexpert jobs create`.")
		return
	}

	var sb strings.Builder
	for i, j := range jobs {
		sb.WriteString(fmt.Sprintf("%s  %s\n", j.ID, j.Title))
		sb.WriteString(fmt.Sprintf("    %d resumes · created %s", j.ResumeCount, j.CreatedAt.Format("2006-01-02")))
		if i < len(jobs)-1 {
			sb.WriteString("\n\n")
		}
	}

	p.printBox(fmt.Sprintf("JOBS (%d)", len(jobs)), sb.String())
}

// PrintJob outputs a single job posting.
func (p *Printer) PrintJob(job *types.Job) {
	if job == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:       %s\n", job.ID))
	sb.WriteString(fmt.Sprintf("Title:    %s\n", job.Title))
	sb.WriteString(fmt.Sprintf("Resumes:  %d\n", job.ResumeCount))
	sb.WriteString(fmt.Sprintf("Created:  %s\n\n", job.CreatedAt.Format("2006-01-02 15:04")))
	sb.WriteString(wrap(job.Description, boxWidth-4))

	p.printBox("JOB", sb.String())
}

// PrintRankings outputs ranking results in the order given.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRankings(job *types.Job, rankings []types.RankingResult) {
	title := "RANKINGS"
	if job != nil {
		title = fmt.Sprintf("RANKINGS: %s", job.Title)
	}
	if len(rankings) == 0 {
		fmt.Fprintln(p.out, "No ranked resumes for this job.")
		return
	}

	var sb strings.Builder
	for i, r := range rankings {
		sb.WriteString(fmt.Sprintf("#%d  %s  %d%% (%s)\n", i+1, r.CandidateName, r.Score, types.ScoreBand(r.Score)))
		sb.WriteString(fmt.Sprintf("    %s · id %s", r.Filename, r.ID))
		if r.Summary != "" {
			sb.WriteString(fmt.Sprintf("\n    %s", truncate(r.Summary, 52)))
		}
		if i < len(rankings)-1 {
			sb.WriteString("\n\n")
		}
	}

	p.printBox(title, sb.String())
}

// PrintBatch outputs per-file status for a ranking batch.
func (p *Printer) PrintBatch(items []types.BatchItem) {
	if len(items) == 0 {
		return
	}

	var sb strings.Builder
	for i, it := range items {
		marker := "…"
		switch it.Status {
		case types.StatusCompleted:
			marker = "✓"
		case types.StatusFailed:
			marker = "✗"
		}
		sb.WriteString(fmt.Sprintf("%s %-30s %s", marker, truncate(it.Filename, 30), it.Status))
		if it.Result != nil {
			sb.WriteString(fmt.Sprintf(" %d%%", it.Result.Score))
		}
		if it.Error != "" {
			sb.WriteString(fmt.Sprintf("\n    %s", truncate(it.Error, 50)))
		}
		if i < len(items)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("BATCH", sb.String())
}

// wrap breaks text on word boundaries into lines of at most width runes.
func wrap(text string, width int) string {
	var lines []string
	for _, para := range strings.Split(strings.TrimSpace(text), "\n") {
		var line string
		for _, word := range strings.Fields(para) {
			switch {
			case line == "":
				line = word
			case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) > width:
				lines = append(lines, line)
				line = word
			default:
				line += " " + word
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
