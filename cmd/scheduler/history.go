package scheduler

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/secnews/cmd/common"
	"github.com/jonesrussell/secnews/internal/database"
)

// defaultHistoryLimit bounds the history listing when no flag is given.
const defaultHistoryLimit = 20

// historyCommand returns the scheduler history subcommand.
func historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent crawl cycle executions",
		Long: `Show the most recent crawl cycle executions recorded in the
configured PostgreSQL database, newest first.`,
		RunE: runHistory,
	}
	cmd.Flags().Int("limit", defaultHistoryLimit, "number of executions to show")
	return cmd
}

// runHistory lists recorded cycle executions in a table.
func runHistory(cmd *cobra.Command, _ []string) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Logger.Sync() }()

	dsn := deps.Config.Database.DSN
	if dsn == "" {
		return fmt.Errorf("no database configured: set database.dsn to record and inspect crawl history")
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := database.NewPostgresConnection(dsn)
	if err != nil {
		return err
	}
	repo, err := database.NewExecutionRepository(cmd.Context(), db)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() { _ = repo.Close() }()

	executions, err := repo.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(executions) == 0 {
		fmt.Println("No crawl executions recorded")
		return nil
	}

	renderHistory(executions)
	return nil
}

// renderHistory displays cycle executions in a table.
func renderHistory(executions []database.CycleExecution) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Started", "Duration", "Sites", "Failed", "Saved", "Duplicates", "Skipped", "Error"})
	for i := range executions {
		e := &executions[i]
		t.AppendRow(table.Row{
			e.StartedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%dms", e.DurationMs),
			e.SitesTotal,
			e.SitesFailed,
			e.ArticlesSaved,
			e.Duplicates,
			e.Skipped,
			e.ErrorMessage,
		})
	}

	t.Render()
	fmt.Printf("%d execution(s)\n", len(executions))
}
