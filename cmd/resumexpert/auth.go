package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumexpert/internal/config"
)

var (
	registerCmd = &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long:  "Create an account. Registration does not sign in; run login afterwards.",
		Args:  cobra.NoArgs,
		RunE:  runRegister,
	}
	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE:  runLogin,
	}
	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
)

var (
	authUsername string
	authPassword string
)

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVarP(&authUsername, "username", "u", "", "Username (at least 5 characters)")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "Password (defaults to RESUMEXPERT_PASSWORD env var)")
		_ = c.MarkFlagRequired("username")
	}
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)
}

// password returns the flag value, falling back to the environment.
func password(getenv func(string) string) (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	if v := getenv(config.EnvPassword); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("--password or %s is required", config.EnvPassword)
}

func runRegister(cmd *cobra.Command, _ []string) error {
	pw, err := password(os.Getenv)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.session.Register(ctx, authUsername, pw); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Account created. Run 'resumexpert login' to sign in.")
		return nil
	})
}

func runLogin(cmd *cobra.Command, _ []string) error {
	pw, err := password(os.Getenv)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		s, err := a.session.Login(ctx, authUsername, pw)
		if err != nil {
			return err
		}
		return a.emit(s, func() {
			fmt.Fprintf(a.out, "Signed in as %s\n", s.Username)
		})
	})
}

func runLogout(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.session.Logout(ctx); err != nil {
			a.log.WithError(err).Warn("backend logout failed; local session cleared")
		}
		fmt.Fprintln(a.out, "Signed out.")
		return nil
	})
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		s := a.session.Init(ctx)
		return a.emit(s, func() {
			if !s.Authenticated {
				fmt.Fprintln(a.out, "Not signed in.")
				return
			}
			fmt.Fprintf(a.out, "Signed in as %s\n", s.Username)
		})
	})
}
