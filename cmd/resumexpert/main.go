// Package main provides the resumexpert command line client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resumexpert",
	Short: "ResumeXpert command line client",
	Long: `Analyze a resume against a job description, discover matching open positions,
and rank batches of resumes against saved job postings.

Configuration can be loaded from a JSON file using --config. Environment variables
override the file, and explicitly set flags override both.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagConfigPath string
	flagAPIURL     string
	flagStore      string
	flagDBURL      string
	flagVerbose    bool
	flagLogFormat  string
	flagNoWait     bool
	flagJSON       bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	pf.StringVar(&flagAPIURL, "api-url", "", "Backend base URL (defaults to RESUMEXPERT_API_URL)")
	pf.StringVar(&flagStore, "store", "", "Job store backend: remote or postgres")
	pf.StringVar(&flagDBURL, "db-url", "", "PostgreSQL connection URL for --store postgres (defaults to DATABASE_URL)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Print detailed debug information")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	pf.BoolVar(&flagNoWait, "no-wait", false, "Do not wait for the backend to come online")
	pf.BoolVar(&flagJSON, "json", false, "Print results as JSON")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
