package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/markshust/pr-merge-scheduler/internal/commands"
	"github.com/markshust/pr-merge-scheduler/internal/config"
	"github.com/markshust/pr-merge-scheduler/internal/daemon"
	"github.com/markshust/pr-merge-scheduler/internal/github"
	"github.com/markshust/pr-merge-scheduler/internal/schedule"
	"github.com/markshust/pr-merge-scheduler/internal/sweep"
)

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pr-merge-scheduler",
		Short: "Schedule pull request merges with @merge-at comments",
		Long: `pr-merge-scheduler schedules pull request merges triggered by
timestamped comments ("@merge-at 2024-06-01 14:30 America/New_York").
Schedules live entirely in repository metadata (a label plus a marker
comment); a periodic sweep merges whatever has come due.`,
		SilenceUsage: true,
	}

	commentCmd = &cobra.Command{
		Use:   "comment",
		Short: "Handle one PR comment event",
		RunE:  runComment,
	}

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Run one sweep over all scheduled merges",
		RunE:  runSweep,
	}

	daemonCmd = &cobra.Command{
		Use:   "daemon",
		Short: "Run sweeps on a cron schedule until interrupted",
		RunE:  runDaemon,
	}
)

func init() {
	cfg = config.FromEnv()

	rootCmd.PersistentFlags().StringVar(&cfg.GitHubToken, "token", cfg.GitHubToken, "GitHub API token")
	rootCmd.PersistentFlags().StringVar(&cfg.GHHost, "gh-host", cfg.GHHost, "GitHub Enterprise Server hostname")
	rootCmd.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")

	commentCmd.Flags().StringVar(&cfg.Repository, "repository", cfg.Repository, "repository in owner/repo format")
	commentCmd.Flags().IntVar(&cfg.PRNumber, "pr-number", cfg.PRNumber, "pull request number")
	commentCmd.Flags().Int64Var(&cfg.CommentID, "comment-id", cfg.CommentID, "id of the triggering comment")
	commentCmd.Flags().StringVar(&cfg.CommentBody, "comment-body", cfg.CommentBody, "body of the triggering comment")

	daemonCmd.Flags().StringVar(&cfg.CronSchedule, "cron", cronDefault(cfg.CronSchedule), "cron schedule for sweeps")

	rootCmd.AddCommand(commentCmd, sweepCmd, daemonCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runComment(cmd *cobra.Command, _ []string) error {
	if err := cfg.ValidateComment(); err != nil {
		return err
	}

	log := newLogger()

	client, err := github.NewClient(cfg.GitHubToken, cfg.GHHost)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	store := schedule.NewStore(client, log)
	handler := commands.NewHandler(client, store, log, cfg.Owner(), cfg.Repo(), cfg.PRNumber, cfg.CommentID)

	return handler.HandleComment(cmd.Context(), cfg.CommentBody)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	if err := cfg.ValidateSweep(); err != nil {
		return err
	}

	log := newLogger()

	client, err := github.NewClient(cfg.GitHubToken, cfg.GHHost)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	store := schedule.NewStore(client, log)
	return sweep.NewSweeper(client, store, log).Sweep(cmd.Context())
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if err := cfg.ValidateSweep(); err != nil {
		return err
	}

	log := newLogger()

	client, err := github.NewClient(cfg.GitHubToken, cfg.GHHost)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	store := schedule.NewStore(client, log)
	sweeper := sweep.NewSweeper(client, store, log)

	d, err := daemon.New(sweeper, log, cronDefault(cfg.CronSchedule))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d.Run(ctx)
	return nil
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func cronDefault(schedule string) string {
	if schedule == "" {
		return daemon.DefaultSchedule
	}
	return schedule
}
