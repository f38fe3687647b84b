package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/connectors/filesystem"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Index documents for questions",
	Long: `Extract, chunk and embed documents into a vector collection.

Directories are walked recursively and every supported file is included.
Hidden directories are skipped. Files named explicitly are always
included; unsupported ones are reported as skipped.

Re-ingesting the same documents with the same embedding model reuses the
existing collection.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringP("model", "m", "", "embedding model (default from settings)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	jobs, err := requireJobs()
	if err != nil {
		return err
	}

	model, err := cmd.Flags().GetString("model")
	if err != nil {
		return fmt.Errorf("getting model flag: %w", err)
	}
	if model == "" {
		model = appSettings.Embedding.Model
	}

	return ingestPaths(cmd.Context(), newEventPrinter(cmd.OutOrStdout()), jobs, args, model)
}

// ingestPaths scans paths and runs one ingestion job over the documents.
func ingestPaths(ctx context.Context, p *eventPrinter, jobs driving.JobController, paths []string, model string) error {
	docs, err := filesystem.Scan(paths, supportsFile)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return domain.ErrNoDocuments
	}

	_, err = runJob(ctx, jobs, func(ctx context.Context) (string, error) {
		return jobs.StartIngestion(ctx, docs, model)
	}, p.print)
	return err
}
