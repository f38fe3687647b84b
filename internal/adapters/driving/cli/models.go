package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available from the generation provider",
	RunE:  runModels,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the generation provider is reachable",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(statusCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	if modelService == nil {
		return errors.New("model service not configured")
	}

	models, err := modelService.ListModels(cmd.Context())
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	if len(models) == 0 {
		cmd.Println("No models installed.")
		return nil
	}
	for _, m := range models {
		marker := " "
		if m == appSettings.LLM.Model {
			marker = "*"
		}
		cmd.Printf("%s %s\n", marker, m)
	}
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if modelService == nil {
		return errors.New("model service not configured")
	}

	st := modelService.Status(cmd.Context())
	cmd.Printf("Provider: %s\n", st.Provider)
	if st.BaseURL != "" {
		cmd.Printf("Base URL: %s\n", st.BaseURL)
	}
	if !st.Reachable {
		cmd.Println("Status:   unreachable")
		if st.Err != nil {
			cmd.Printf("Error:    %v\n", st.Err)
		}
		return errors.New("generation provider unreachable")
	}
	cmd.Println("Status:   ok")
	cmd.Printf("Models:   %d installed\n", len(st.Models))

	if current, ok := jobControllerCurrent(); ok {
		cmd.Printf("Collection: %s\n", current)
	}
	return nil
}

func jobControllerCurrent() (string, bool) {
	if jobController == nil {
		return "", false
	}
	info, ok := jobController.Current()
	return info.Name, ok
}
