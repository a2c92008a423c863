package sources

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/secnews/cmd/common"
)

// newValidateCommand creates the sources validate command.
func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the sources file",
		Long:  `Parse the configured sources file and report the first definition error, if any.`,
		RunE:  runValidate,
	}
}

// runValidate checks the sources file loads cleanly.
func runValidate(_ *cobra.Command, _ []string) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Logger.Sync() }()

	sites, err := deps.LoadSources()
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d source(s) valid\n", deps.Config.Scraper.SourcesFile, len(sites))
	return nil
}
