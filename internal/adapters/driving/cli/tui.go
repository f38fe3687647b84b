package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for ragdesk.

The TUI ingests documents, asks questions with streamed answers, and
manages collections and settings with keyboard navigation.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Select / Submit
  Ctrl+X   - Cancel the running job
  Esc      - Back
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	jobs, err := requireJobs()
	if err != nil {
		return err
	}

	ports := &tui.Ports{
		Jobs:            jobs,
		Index:           indexService,
		Settings:        settingsService,
		Supports:        supportsFile,
		EmbeddingModel:  appSettings.Embedding.Model,
		GenerationModel: appSettings.LLM.Model,
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	// Jobs outlive the program when it is quit from the menu.
	defer jobs.Cancel()

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
