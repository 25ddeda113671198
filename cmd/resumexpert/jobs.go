package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumexpert/internal/store"
	"github.com/jonathan/resumexpert/internal/types"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage saved job postings",
}

var (
	jobsCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Save a job posting",
		Args:  cobra.NoArgs,
		RunE:  runJobsCreate,
	}
	jobsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List saved job postings with their resume counts",
		Args:  cobra.NoArgs,
		RunE:  runJobsList,
	}
	jobsShowCmd = &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show a job posting",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobsShow,
	}
	jobsDeleteCmd = &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job posting and all of its rankings",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobsDelete,
	}
)

var (
	jobTitle    string
	jobDescFile string
	jobDescText string
	jobFromURL  string
)

func init() {
	f := jobsCreateCmd.Flags()
	f.StringVarP(&jobTitle, "title", "t", "", "Job title (defaults to the posting title with --from-url)")
	f.StringVarP(&jobDescFile, "job", "j", "", "Path to a job description text file")
	f.StringVarP(&jobDescText, "description", "d", "", "Job description text")
	f.StringVar(&jobFromURL, "from-url", "", "URL of a job posting to import")
	f.Bool("use-browser", false, "Render --from-url in a headless browser (requires Chrome)")

	jobsCmd.AddCommand(jobsCreateCmd, jobsListCmd, jobsShowCmd, jobsDeleteCmd)
	rootCmd.AddCommand(jobsCmd)
}

// withStore runs fn for a signed-in user with the configured store open.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, a *app, st jobStore) error) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if _, err := a.requireAuth(ctx); err != nil {
			return err
		}
		st, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, a, st)
	})
}

// jobStore is the store surface the commands use.
type jobStore interface {
	Job(jobID string) (types.Job, bool)
	GetJob(ctx context.Context, jobID string) (*types.Job, error)
	CreateJob(ctx context.Context, title, description string) (*types.Job, error)
	ListJobs(ctx context.Context) ([]types.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	ListRankings(ctx context.Context, jobID string) ([]types.RankingResult, error)
	DeleteRanking(ctx context.Context, jobID, rankingID string) error
	MergeRankings(ctx context.Context, jobID string, results []types.RankingResult) ([]types.RankingResult, error)
}

// deletion is the --json output of the delete commands.
type deletion struct {
	Deleted string `json:"deleted"`
	ID      string `json:"id"`
	JobID   string `json:"job_id,omitempty"`
}

// findJob resolves jobID with a live resume count.
func findJob(ctx context.Context, st jobStore, jobID string) (*types.Job, error) {
	job, err := st.GetJob(ctx, jobID)
	if errors.Is(err, store.ErrJobNotFound) {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	return job, err
}

func runJobsCreate(cmd *cobra.Command, _ []string) error {
	src := jobSource{File: jobDescFile, Text: jobDescText, URL: jobFromURL}
	if err := src.validate(); err != nil {
		return err
	}

	return withStore(cmd, func(ctx context.Context, a *app, st jobStore) error {
		text, err := src.resolve(ctx, a)
		if err != nil {
			return err
		}
		title := strings.TrimSpace(jobTitle)
		if title == "" {
			title = text.Title
		}

		job, err := st.CreateJob(ctx, title, text.Description)
		if err != nil {
			return err
		}
		return a.emit(job, func() {
			fmt.Fprintf(a.out, "Created job %s (%s)\n", job.ID, job.Title)
		})
	})
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, a *app, st jobStore) error {
		jobs, err := st.ListJobs(ctx)
		if err != nil {
			return err
		}
		return a.emit(jobs, func() { a.printer.PrintJobs(jobs) })
	})
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, a *app, st jobStore) error {
		job, err := findJob(ctx, st, args[0])
		if err != nil {
			return err
		}
		return a.emit(job, func() { a.printer.PrintJob(job) })
	})
}

func runJobsDelete(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, a *app, st jobStore) error {
		if err := st.DeleteJob(ctx, args[0]); err != nil {
			return err
		}
		return a.emit(deletion{Deleted: "job", ID: args[0]}, func() {
			fmt.Fprintf(a.out, "Deleted job %s\n", args[0])
		})
	})
}
