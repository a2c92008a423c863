// Package sources implements the command-line interface for inspecting
// the configured scraping sources.
package sources

import (
	"github.com/spf13/cobra"
)

// Command returns the sources command group for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage scraping sources",
		Long:  `List and validate the per-site scraping definitions.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newValidateCommand())
	return cmd
}
