package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask a question about ingested documents",
	Long: `Retrieve the most relevant excerpts and stream an answer grounded
in them, followed by the cited sources.

Questions run against the most recently completed collection unless
--collection is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringP("model", "m", "", "generation model (default from settings)")
	askCmd.Flags().StringP("collection", "c", "", "collection to query")
	askCmd.Flags().Bool("json", false, "print the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	jobs, err := requireJobs()
	if err != nil {
		return err
	}

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = appSettings.LLM.Model
	}
	collection, _ := cmd.Flags().GetString("collection")
	asJSON, _ := cmd.Flags().GetBool("json")

	if collection != "" {
		if _, err := jobs.Attach(cmd.Context(), collection); err != nil {
			return fmt.Errorf("attach collection: %w", err)
		}
	}

	question := strings.Join(args, " ")

	var render func(domain.Event)
	if !asJSON {
		render = newEventPrinter(cmd.OutOrStdout()).print
	}

	res, err := runJob(cmd.Context(), jobs, func(ctx context.Context) (string, error) {
		return jobs.StartQuery(ctx, question, model)
	}, render)
	if err != nil {
		return err
	}
	if res.Answer == nil {
		return nil
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res.Answer)
	}
	if res.Answer.NoRelevantInfo {
		cmd.Println(res.Answer.Text)
	}
	return nil
}
