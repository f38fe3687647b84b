package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragdesk/internal/connectors/filesystem"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Ingest documents and re-ingest them when they change",
	Long: `Ingest documents, then watch them and re-ingest after changes.

Changes are batched until no file has changed for the debounce period.
Press Ctrl+C to stop.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringP("model", "m", "", "embedding model (default from settings)")
	watchCmd.Flags().Duration("debounce", 2*time.Second, "quiet period before re-ingesting")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	jobs, err := requireJobs()
	if err != nil {
		return err
	}

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = appSettings.Embedding.Model
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")

	p := newEventPrinter(cmd.OutOrStdout())
	if err := ingestPaths(cmd.Context(), p, jobs, args, model); err != nil && !errors.Is(err, domain.ErrNoDocuments) {
		return err
	}

	w := filesystem.NewWatcher(args, supportsFile)
	defer w.Close()

	g, ctx := errgroup.WithContext(cmd.Context())
	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	batches := filesystem.Batch(ctx, changes, debounce)
	cmd.Println("Watching for changes. Press Ctrl+C to stop.")

	g.Go(func() error {
		for batch := range batches {
			cmd.Printf("%d file(s) changed, re-ingesting\n", len(batch))
			err := ingestPaths(ctx, p, jobs, args, model)
			switch {
			case err == nil, errors.Is(err, domain.ErrNoDocuments):
			case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrContent), errors.Is(err, domain.ErrTransientProvider):
				logger.Warn("re-ingest failed: %v", err)
			default:
				return err
			}
		}
		return nil
	})

	err = g.Wait()
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
