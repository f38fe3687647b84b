package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage stored collections",
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections, most recent first",
	RunE:  runIndexList,
}

var indexDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete one collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexDelete,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every collection",
	Long: `Delete every stored collection. Use this after changing chunk
settings so documents are re-indexed from scratch.`,
	RunE: runReset,
}

func init() {
	indexListCmd.Flags().Bool("json", false, "print collections as JSON")
	resetCmd.Flags().BoolP("force", "f", false, "do not ask for confirmation")
	indexCmd.AddCommand(indexListCmd)
	indexCmd.AddCommand(indexDeleteCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(resetCmd)
}

type collectionJSON struct {
	Name           string   `json:"name"`
	EmbeddingModel string   `json:"embedding_model"`
	Dimensions     int      `json:"dimensions"`
	Documents      []string `json:"documents"`
	Chunks         int      `json:"chunks"`
	CreatedAt      string   `json:"created_at"`
	Completed      bool     `json:"completed"`
}

func runIndexList(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	infos, err := indexService.List(cmd.Context())
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out := make([]collectionJSON, 0, len(infos))
		for _, info := range infos {
			out = append(out, collectionJSON{
				Name:           info.Name,
				EmbeddingModel: info.EmbeddingModel,
				Dimensions:     info.Dimensions,
				Documents:      info.Documents,
				Chunks:         info.Chunks,
				CreatedAt:      info.CreatedAt.Format(time.RFC3339),
				Completed:      info.IsCompleted(),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(infos) == 0 {
		cmd.Println("No collections. Run 'ragdesk ingest <paths>' to create one.")
		return nil
	}
	for _, info := range infos {
		cmd.Printf("%s\n", info.Name)
		cmd.Printf("  Model:     %s (%d dims)\n", info.EmbeddingModel, info.Dimensions)
		cmd.Printf("  Chunks:    %d\n", info.Chunks)
		cmd.Printf("  Documents: %s\n", strings.Join(info.Documents, ", "))
		cmd.Printf("  Status:    %s\n", collectionStatus(info))
	}
	return nil
}

func collectionStatus(info domain.CollectionInfo) string {
	if info.IsCompleted() {
		return "completed " + info.CompletedAt.Format("2006-01-02 15:04")
	}
	return "incomplete"
}

func runIndexDelete(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	if err := indexService.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		cmd.Print("Delete all collections? [y/N]: ")
		answer := strings.ToLower(readLine(bufio.NewReader(cmd.InOrStdin())))
		if answer != "y" && answer != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	n, err := indexService.Reset(cmd.Context())
	if err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	cmd.Printf("Deleted %d collections.\n", n)
	return nil
}
