package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jonathan/resumexpert/internal/api"
	"github.com/jonathan/resumexpert/internal/config"
	"github.com/jonathan/resumexpert/internal/db"
	"github.com/jonathan/resumexpert/internal/gate"
	"github.com/jonathan/resumexpert/internal/notify"
	"github.com/jonathan/resumexpert/internal/observability"
	"github.com/jonathan/resumexpert/internal/session"
	"github.com/jonathan/resumexpert/internal/store"
	"github.com/jonathan/resumexpert/internal/types"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg     config.Config
	log     *logrus.Logger
	out     io.Writer
	errOut  io.Writer
	printer *observability.Printer
	client  *api.Client
	session *session.Client

	closers []func()
}

// loadConfig layers the config file, the environment and explicitly set
// flags, then fills defaults and validates.
func loadConfig(cmd *cobra.Command, getenv func(string) string) (config.Config, error) {
	var cfg config.Config
	if flagConfigPath != "" {
		loaded, err := config.LoadConfig(flagConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if err := cfg.ApplyEnv(getenv); err != nil {
		return cfg, err
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = flagAPIURL
	}
	if flags.Changed("store") {
		cfg.Store = flagStore
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = flagDBURL
	}
	if flags.Changed("verbose") {
		cfg.Verbose = flagVerbose
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if flags.Lookup("use-browser") != nil && flags.Changed("use-browser") {
		cfg.UseBrowser, _ = flags.GetBool("use-browser")
	}
	if flags.Lookup("location") != nil && flags.Changed("location") {
		cfg.JobLocation, _ = flags.GetString("location")
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if cfg.Verbose && cfg.LogLevel == "info" {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newApp builds the client stack for cmd and restores the saved session.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd, os.Getenv)
	if err != nil {
		return nil, err
	}

	log, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	client, err := api.New(cfg.APIURL, &api.Options{
		RequestTimeout: cfg.RequestTimeout(),
		ProbeTimeout:   cfg.ProbeTimeout(),
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}
	if err := client.LoadSession(cfg.SessionFile); err != nil {
		log.WithError(err).Warn("ignoring unreadable session file")
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		printer: observability.NewPrinter(cmd.OutOrStdout()),
		client:  client,
		session: session.New(client, log),
	}
	return a, nil
}

// close persists the session cookies and releases resources.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if err := a.client.SaveSession(a.cfg.SessionFile); err != nil {
		a.log.WithError(err).Warn("failed to save session")
	}
}

// waitOnline blocks until the backend answers its health probe.
func (a *app) waitOnline(ctx context.Context) error {
	if flagNoWait {
		return nil
	}
	g := gate.New(a.client, gate.Options{
		Interval: a.cfg.HealthInterval(),
		Logger:   a.log,
		Listener: func(ev gate.Event) {
			if ev.State == gate.Checking && ev.Attempt == 2 {
				fmt.Fprintln(a.errOut, "Waiting for the server to come online...")
			}
		},
	})
	if err := g.Wait(ctx); err != nil {
		return fmt.Errorf("server did not come online: %w", err)
	}
	return nil
}

// requireAuth guards commands that need a signed-in user.
func (a *app) requireAuth(ctx context.Context) (types.Session, error) {
	return a.session.RequireAuth(ctx)
}

// openStore connects the configured job store backend.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	opts := store.Options{Concurrency: a.cfg.MaxConcurrency, Logger: a.log}

	switch a.cfg.Store {
	case config.StorePostgres:
		database, err := db.Connect(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, database.Close)
		return store.New(database, opts), nil
	default:
		return store.New(store.NewRemote(a.client), opts), nil
	}
}

// notifier returns the completion notifiers configured for batches.
func (a *app) notifier() notify.Notifier {
	sinks := notify.Multi{notify.NewLogNotifier(a.log)}
	if a.cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(a.cfg.TelegramToken, a.cfg.TelegramChatID)
		if err != nil {
			a.log.WithError(err).Warn("telegram notifications disabled")
		} else {
			sinks = append(sinks, tg)
		}
	}
	return sinks
}

// emit prints v as JSON under --json, otherwise calls human.
func (a *app) emit(v any, human func()) error {
	if !flagJSON {
		human()
		return nil
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withApp runs fn with a ready app: backend online, session restored.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.waitOnline(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}
