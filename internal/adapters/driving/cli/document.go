package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var documentJSON bool

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List, rename, or delete ingested documents. Renames and deletes also update the history.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, most recently ingested first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentRenameCmd = &cobra.Command{
	Use:   "rename [name] [new-name]",
	Short: "Rename a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentRename,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a document and its history references",
	Long: `Removes every chunk of the document. History entries answered only from
this document are deleted; entries that also used other documents keep them.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentDelete,
}

func init() {
	documentListCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentRenameCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentJSON {
		type docInfo struct {
			Name   string `json:"name"`
			Chunks int    `json:"chunks"`
		}
		infos := make([]docInfo, len(docs))
		for i, d := range docs {
			infos[i] = docInfo{Name: d.Source, Chunks: d.ChunkCount}
		}
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for _, d := range docs {
		cmd.Printf("  %s (%d chunks)\n", d.Source, d.ChunkCount)
	}
	cmd.Println()
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentRename(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	oldName, newName := args[0], args[1]
	change, err := documentService.Rename(cmd.Context(), oldName, newName)
	if err != nil {
		return fmt.Errorf("failed to rename document: %w", err)
	}

	cmd.Printf("Renamed %q to %q (%d chunks, %d history entries).\n",
		oldName, newName, change.Chunks, change.History)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	name := args[0]
	change, err := documentService.Delete(cmd.Context(), name)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted %q (%d chunks, %d history entries).\n", name, change.Chunks, change.History)
	return nil
}
