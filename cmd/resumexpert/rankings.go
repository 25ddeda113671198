package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumexpert/internal/export"
)

var rankingsCmd = &cobra.Command{
	Use:   "rankings",
	Short: "Inspect and manage ranking results",
}

var (
	rankingsListCmd = &cobra.Command{
		Use:   "list <job-id>",
		Short: "List a job's rankings, highest score first",
		Args:  cobra.ExactArgs(1),
		RunE:  runRankingsList,
	}
	rankingsDeleteCmd = &cobra.Command{
		Use:   "delete <job-id> <ranking-id>",
		Short: "Delete one ranking",
		Args:  cobra.ExactArgs(2),
		RunE:  runRankingsDelete,
	}
	rankingsExportCmd = &cobra.Command{
		Use:   "export <job-id>",
		Short: "Export a job's rankings to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runRankingsExport,
	}
)

var exportOut string

func init() {
	rankingsExportCmd.Flags().StringVarP(&exportOut, "out", "o", "rankings.xlsx", "Output file path")

	rankingsCmd.AddCommand(rankingsListCmd, rankingsDeleteCmd, rankingsExportCmd)
	rootCmd.AddCommand(rankingsCmd)
}

func runRankingsList(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, a *app, st jobStore) error {
		job, err := findJob(ctx, st, args[0])
		if err != nil {
			return err
		}
		rankings, err := st.ListRankings(ctx, job.ID)
		if err != nil {
			return err
		}
		return a.emit(rankings, func() { a.printer.PrintRankings(job, rankings) })
	})
}

func runRankingsDelete(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, a *app, st jobStore) error {
		if err := st.DeleteRanking(ctx, args[0], args[1]); err != nil {
			return err
		}
		return a.emit(deletion{Deleted: "ranking", ID: args[1], JobID: args[0]}, func() {
			fmt.Fprintf(a.out, "Deleted ranking %s\n", args[1])
		})
	})
}

func runRankingsExport(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, a *app, st jobStore) error {
		job, err := findJob(ctx, st, args[0])
		if err != nil {
			return err
		}
		rankings, err := st.ListRankings(ctx, job.ID)
		if err != nil {
			return err
		}
		path, err := export.WriteFile(*job, rankings, exportOut, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Exported %d rankings to %s\n", len(rankings), path)
		return nil
	})
}
