// Package crawl implements the one-shot crawl command.
package crawl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/secnews/cmd/common"
	"github.com/jonesrussell/secnews/internal/crawler"
	"github.com/jonesrussell/secnews/internal/scraper"
)

// Command returns the crawl command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [source]",
		Short: "Run one crawl cycle",
		Long: `Crawl every configured source once and persist new articles.

With a source name argument, only that source is crawled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawl,
	}
	return cmd
}

// runCrawl executes a single crawl cycle.
func runCrawl(cmd *cobra.Command, args []string) error {
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

	ctx := cmd.Context()

	tracker := scraper.NewTracker()
	if err := tracker.Load(ctx, store); err != nil {
		return err
	}

	c := crawler.New(sites, store, tracker, &deps.Config.Scraper, deps.Logger)

	if len(args) == 1 {
		stats, runErr := c.RunSite(ctx, args[0])
		if runErr != nil {
			return runErr
		}
		deps.Logger.Info("Crawl finished",
			"source", args[0],
			"pages", stats.Pages,
			"saved", stats.Saved,
			"duplicates", stats.Duplicates,
			"skipped", stats.Skipped,
		)
		return nil
	}

	stats, err := c.Run(ctx)
	if err != nil {
		return err
	}
	deps.Logger.Info("Crawl finished",
		"sources", len(stats.Results),
		"saved", stats.Saved,
		"duplicates", stats.Duplicates,
		"skipped", stats.Skipped,
	)
	return nil
}
