// Package importer implements the CSV import command, migrating
// file-backed article data into the configured storage backend.
package importer

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/secnews/cmd/common"
	"github.com/jonesrussell/secnews/internal/storage"
)

// Command returns the importer command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "importer <file>",
		Short: "Import articles from a CSV file",
		Long: `Import articles from a CSV export into the configured storage
backend. Rows are upserted by source URL, so re-running an import is
safe. With --replace and the Elasticsearch backend, the article index
is dropped and recreated first.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
	cmd.Flags().Bool("replace", false, "drop and recreate the target index before importing")
	return cmd
}

// runImport copies every article from the CSV file into storage.
func runImport(cmd *cobra.Command, args []string) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Logger.Sync() }()

	ctx := cmd.Context()

	store, err := deps.OpenStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	replace, err := cmd.Flags().GetBool("replace")
	if err != nil {
		return err
	}
	if replace {
		es, ok := store.(*storage.ElasticsearchStorage)
		if !ok {
			return fmt.Errorf("--replace requires the elasticsearch backend, got %q", deps.Config.Storage.Backend)
		}
		if dropErr := es.DeleteIndex(ctx); dropErr != nil {
			return dropErr
		}
		if ensureErr := es.EnsureIndex(ctx); ensureErr != nil {
			return ensureErr
		}
	}

	source := storage.NewCSVStorage(args[0], deps.Logger)
	count, err := source.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	articles, err := source.List(ctx, 0, int(count))
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	imported := 0
	for i := range articles {
		if _, saveErr := store.Save(ctx, &articles[i]); saveErr != nil {
			deps.Logger.Warn("Skipping row", "url", articles[i].SourceURL, "error", saveErr)
			continue
		}
		imported++
	}

	deps.Logger.Info("Import finished", "file", args[0], "rows", len(articles), "imported", imported)
	return nil
}
