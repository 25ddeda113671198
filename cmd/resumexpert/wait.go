package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait until the backend is online",
	Long:  "Poll the backend health endpoint until it reports ready. The hosted backend may take a while to wake up.",
	Args:  cobra.NoArgs,
	RunE:  runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
}

func runWait(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(_ context.Context, a *app) error {
		return a.emit(map[string]string{"status": "online", "api_url": a.client.BaseURL()}, func() {
			fmt.Fprintf(a.out, "Server is online: %s\n", a.client.BaseURL())
		})
	})
}
