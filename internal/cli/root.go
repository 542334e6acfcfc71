package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"focustimer/internal/client"
	"focustimer/internal/config"
	"focustimer/internal/credentials"
	"focustimer/internal/persist"
)

var (
	configPath string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "focus",
		Short: "Focus timer with tasks and session history",
		Long: `focus runs a focus/short-break/long-break countdown in the terminal.

Guests keep tasks and settings in a local file. After "focus login" tasks,
settings and completed sessions are stored on the focus server.`,
		RunE:          runTimer,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addRunFlags(rootCmd)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.focus/config.yaml)")
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg     config.ClientConfig
	logger  *slog.Logger
	logFile io.Closer
	creds   *credentials.Provider
	api     *client.Client
	local   *persist.LocalStore
	store   *persist.DualStore
}

func newApp() (*app, error) {
	cfg, err := config.LoadClient(configPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	logWriter := io.Writer(os.Stderr)
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logWriter = file
		a.logFile = file
	}
	a.logger = config.NewLogger(logWriter, cfg.LogLevel)

	a.creds, err = credentials.Open(cfg.DataDir)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.api = client.New(cfg.ServerURL,
		client.WithToken(a.creds.Token),
		client.WithUnauthorizedHook(func() {
			a.logger.Warn("session expired, signing out")
			if err := a.creds.Logout(); err != nil {
				a.logger.Error("failed to sign out", "error", err)
			}
		}),
	)

	a.local = persist.NewLocalStore(cfg.DataDir)
	a.store = persist.NewDualStore(a.creds, a.local, persist.NewRemoteStore(a.api, a.local))

	a.creds.OnLogin(func(account credentials.Account) {
		if err := a.local.ClearGuestData(); err != nil {
			a.logger.Error("failed to clear guest data", "error", err)
		}
		a.logger.Info("signed in", "email", account.Email)
	})
	a.creds.OnLogout(func() {
		if err := a.local.ClearCurrentTask(); err != nil {
			a.logger.Error("failed to clear current task", "error", err)
		}
	})
	return a, nil
}

func (a *app) Close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// withApp adapts a RunE that needs the shared collaborators.
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

func (a *app) requireLogin() error {
	if !a.creds.Authenticated() {
		return fmt.Errorf("not signed in, run \"focus login\" first")
	}
	return nil
}
