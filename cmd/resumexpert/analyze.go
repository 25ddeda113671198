package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumexpert/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a resume against a job description",
	Long: `Uploads the resume, scores it against the job description, and lists open
positions for the best-matching career. Job matching is best effort: when it
fails the analysis is still shown.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

var (
	analyzeResume  string
	analyzeJobFile string
	analyzeJobText string
	analyzeJobURL  string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeResume, "resume", "r", "", "Path to the resume PDF")
	analyzeCmd.Flags().StringVarP(&analyzeJobFile, "job", "j", "", "Path to a job description text file")
	analyzeCmd.Flags().StringVar(&analyzeJobText, "job-text", "", "Job description text")
	analyzeCmd.Flags().StringVar(&analyzeJobURL, "job-url", "", "URL of a job posting to use as the description")
	// Read by loadConfig as overrides of job_location and use_browser.
	analyzeCmd.Flags().StringP("location", "l", "", "Location for job matching")
	analyzeCmd.Flags().Bool("use-browser", false, "Render --job-url in a headless browser (requires Chrome)")
	_ = analyzeCmd.MarkFlagRequired("resume")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	src := jobSource{File: analyzeJobFile, Text: analyzeJobText, URL: analyzeJobURL}
	if err := src.validate(); err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		job, err := src.resolve(ctx, a)
		if err != nil {
			return err
		}

		orch := pipeline.New(a.client, pipeline.Options{
			Location:   a.cfg.JobLocation,
			Logger:     a.log,
			OnProgress: progressPrinter(a),
		})

		out, err := orch.Run(ctx, pipeline.Input{
			ResumePath:     analyzeResume,
			JobDescription: job.Description,
		})
		if err != nil {
			var perr *pipeline.Error
			if errors.As(err, &perr) {
				a.log.WithError(perr.Cause).WithField("stage", perr.Stage).Debug("analysis failed")
				return errors.New(perr.UserMessage())
			}
			return err
		}

		return a.emit(out, func() {
			a.printer.PrintAnalysis(out.Analysis)
			if out.MatchedTitle != "" {
				a.printer.PrintJobListings(out.MatchedTitle, out.JobListings)
			}
		})
	})
}

// progressPrinter reports stage transitions on stderr unless --json is set.
func progressPrinter(a *app) pipeline.ProgressCallback {
	return func(ev pipeline.ProgressEvent) {
		if flagJSON {
			return
		}
		switch ev.Status {
		case pipeline.StatusStarted:
			fmt.Fprintf(a.errOut, "→ %s\n", ev.Message)
		case pipeline.StatusDegraded:
			fmt.Fprintf(a.errOut, "! %s\n", ev.Message)
		}
	}
}
