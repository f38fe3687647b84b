package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change provider, chunking and retrieval settings.

Settings are stored in ~/.ragdesk/config.toml. Use 'settings set' to change
a single key or 'settings wizard' to configure the providers step by step.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting. Values are validated before they are saved.

Run 'ragdesk settings show' to list the keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore default settings",
	RunE:  runSettingsReset,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive provider setup",
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	values, err := settingsService.Values()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	section := ""
	for _, v := range values {
		prefix, _, _ := strings.Cut(v.Key, ".")
		if prefix != section {
			section = prefix
			cmd.Printf("\n[%s]\n", section)
		}
		value := v.Value
		switch {
		case v.Secret:
			value = maskAPIKey(value)
		case value == "":
			value = "(not set)"
		}
		cmd.Printf("  %s = %s\n", v.Key, value)
	}
	cmd.Println()

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'ragdesk settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsReset(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Reset(); err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	cmd.Println("Settings restored to defaults.")
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	current, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("ragdesk Settings Wizard")
	cmd.Println("=======================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	embed := choose(cmd, reader, []domain.AIProvider{domain.AIProviderOllama, domain.AIProviderOpenAI}, current.Embedding.Provider)
	current.Embedding.Provider = embed
	current.Embedding.Model = prompt(cmd, reader, "Embedding model", current.Embedding.Model)
	current.Embedding.Dimensions = domain.DimensionsFor(current.Embedding.Model, current.Embedding.Dimensions)
	if embed == domain.AIProviderOpenAI {
		cmd.Print("Enter API key: ")
		current.Embedding.APIKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if current.Embedding.APIKey == "" {
			return errors.New("API key is required for this provider")
		}
	} else {
		current.Embedding.BaseURL = prompt(cmd, reader, "Base URL", current.Embedding.BaseURL)
	}
	cmd.Println()

	cmd.Println("Step 2: Generation Provider")
	cmd.Println("---------------------------")
	llm := choose(cmd, reader, []domain.AIProvider{domain.AIProviderOllama, domain.AIProviderOllamaCLI}, current.LLM.Provider)
	current.LLM.Provider = llm
	current.LLM.Model = prompt(cmd, reader, "Generation model", current.LLM.Model)
	if llm == domain.AIProviderOllama {
		current.LLM.BaseURL = prompt(cmd, reader, "Base URL", current.LLM.BaseURL)
	}
	cmd.Println()

	if err := settingsService.Save(current); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("Run 'ragdesk status' to check the generation provider.")
	return nil
}

// choose lists providers and reads a 1-based selection. Empty input keeps
// the current provider.
func choose(cmd *cobra.Command, reader *bufio.Reader, providers []domain.AIProvider, current domain.AIProvider) domain.AIProvider {
	def := 1
	for i, p := range providers {
		if p == current {
			def = i + 1
		}
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Printf("\nEnter choice [%d]: ", def)
	return providers[parseChoice(readLine(reader), len(providers), def)-1]
}

func prompt(cmd *cobra.Command, reader *bufio.Reader, label, def string) string {
	cmd.Printf("%s [%s]: ", label, def)
	if v := readLine(reader); v != "" {
		return v
	}
	return def
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
