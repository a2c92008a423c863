// Package scheduler implements the long-running crawl scheduler
// command.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/secnews/cmd/common"
	"github.com/jonesrussell/secnews/internal/crawler"
	"github.com/jonesrussell/secnews/internal/database"
	"github.com/jonesrussell/secnews/internal/scheduler"
	"github.com/jonesrussell/secnews/internal/scraper"
)

// Command returns the scheduler command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run crawl cycles on a schedule",
		Long: `Run crawl cycles forever: every interval (or cron expression) all
configured sources are crawled, with a shortened backoff after a failed
cycle. Stops on SIGINT or SIGTERM.`,
		RunE: runScheduler,
	}
	cmd.AddCommand(historyCommand())
	return cmd
}

// runScheduler starts the scheduling loop until interrupted.
func runScheduler(cmd *cobra.Command, _ []string) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Logger.Sync() }()

	store, err := deps.OpenStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sites, err := deps.LoadSources()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker := scraper.NewTracker()
	if err := tracker.Load(ctx, store); err != nil {
		return err
	}

	recorder, err := newRecorder(ctx, deps)
	if err != nil {
		return err
	}
	defer func() { _ = recorder.Close() }()

	c := crawler.New(sites, store, tracker, &deps.Config.Scraper, deps.Logger)

	s, err := scheduler.New(
		c,
		recorder,
		deps.Logger,
		deps.Config.Scraper.Interval,
		deps.Config.Scraper.FailureBackoff,
		deps.Config.Scraper.Cron,
	)
	if err != nil {
		return err
	}

	if runErr := s.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// newRecorder builds the execution recorder: PostgreSQL when a DSN is
// configured, otherwise a no-op.
func newRecorder(ctx context.Context, deps *common.CommandDeps) (database.ExecutionRecorder, error) {
	dsn := deps.Config.Database.DSN
	if dsn == "" {
		return database.NewNoopRecorder(), nil
	}

	db, err := database.NewPostgresConnection(dsn)
	if err != nil {
		return nil, err
	}
	repo, err := database.NewExecutionRepository(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	deps.Logger.Info("Recording crawl executions to PostgreSQL")
	return repo, nil
}
