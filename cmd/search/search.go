// Package search implements the command-line article search.
package search

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/secnews/cmd/common"
	"github.com/jonesrussell/secnews/internal/domain"
)

// snippetColumnWidth bounds the snippet column in the results table.
const snippetColumnWidth = 60

// Command returns the search command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search stored articles",
		Long: `Search stored articles by title and content.

Examples:
  # Search for articles mentioning ransomware
  secnews search -q "ransomware"`,
		RunE: runSearch,
	}
	cmd.Flags().StringP("query", "q", "", "Query string to search for")
	if err := cmd.MarkFlagRequired("query"); err != nil {
		fmt.Fprintf(os.Stderr, "Error marking query flag as required: %v\n", err)
		os.Exit(1)
	}
	return cmd
}

// runSearch executes the search and renders a results table.
func runSearch(cmd *cobra.Command, _ []string) error {
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

	query := cmd.Flag("query").Value.String()
	articles, err := store.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(articles) == 0 {
		fmt.Printf("No articles match %q\n", query)
		return nil
	}

	renderResults(articles)
	return nil
}

// renderResults displays matched articles in a table.
func renderResults(articles []domain.Article) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Date", "Title", "Category", "Source", "Snippet"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Snippet", WidthMax: snippetColumnWidth, WidthMaxEnforcer: text.WrapSoft},
	})

	for i := range articles {
		a := &articles[i]
		t.AppendRow(table.Row{a.Date, a.Title, a.Category, a.Source, a.Snippet})
	}

	t.Render()
	fmt.Printf("%d article(s)\n", len(articles))
}
