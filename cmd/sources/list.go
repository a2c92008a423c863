package sources

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/secnews/cmd/common"
	internalsources "github.com/jonesrussell/secnews/internal/sources"
)

// newListCommand creates the sources list command.
func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured sources",
		RunE:  runList,
	}
}

// runList loads the sources file and renders a table.
func runList(_ *cobra.Command, _ []string) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Logger.Sync() }()

	sites, err := deps.LoadSources()
	if err != nil {
		return err
	}

	renderSources(sites)
	return nil
}

// renderSources displays the sources in a table.
func renderSources(sites []internalsources.Site) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Name", "URL", "Date Layout", "Max Pages", "Rate Limit", "Boundary"})
	for i := range sites {
		s := &sites[i]
		t.AppendRow(table.Row{s.Name, s.BaseURL, s.DateLayout, s.MaxPages, s.RateLimit, s.BoundaryMonth})
	}

	t.Render()
}
