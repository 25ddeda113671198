package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumexpert/internal/batch"
	"github.com/jonathan/resumexpert/internal/types"
)

var rankCmd = &cobra.Command{
	Use:   "rank <job-id> <resume.pdf>...",
	Short: "Rank a batch of resumes against a saved job",
	Long: `Uploads every PDF in one request and merges the returned rankings into the
job, highest score first. Files that are not PDFs are skipped before upload.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	jobID, paths := args[0], args[1:]

	return withStore(cmd, func(ctx context.Context, a *app, st jobStore) error {
		job, err := findJob(ctx, st, jobID)
		if err != nil {
			return err
		}

		wf := batch.New(job.ID, a.client, st, batch.Options{
			Logger:   a.log,
			Notifier: a.notifier(),
			OnUpdate: func(item types.BatchItem) {
				if !flagJSON {
					fmt.Fprintf(a.errOut, "  %-10s %s\n", item.Status, item.Filename)
				}
			},
		})

		_, rejected, err := wf.Add(paths...)
		if err != nil {
			return err
		}
		for _, r := range rejected {
			fmt.Fprintf(a.errOut, "Skipping %s: %v\n", r.Path, r.Err)
		}

		res, err := wf.Process(ctx)
		if res != nil && !flagJSON {
			a.printer.PrintBatch(res.Items)
		}
		if err != nil {
			return err
		}

		updated, _ := st.Job(job.ID)
		return a.emit(res, func() { a.printer.PrintRankings(&updated, res.Rankings) })
	})
}
