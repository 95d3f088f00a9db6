package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	historySource string
	historyTopK   int
	historyJSON   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse previously answered questions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List answers, newest first",
	Long: `Lists every saved answer. With --source, only answers whose source set is
exactly the given documents (comma separated, any order) are shown.`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historySearchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Find answers containing a keyword",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

var historySimilarCmd = &cobra.Command{
	Use:   "similar [question]",
	Short: "Find past questions similar in meaning",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySimilar,
}

func init() {
	historyListCmd.Flags().StringVarP(&historySource, "source", "s", "", "exact source set, e.g. \"a.pdf, b.txt\"")
	historySimilarCmd.Flags().IntVarP(&historyTopK, "top-k", "k", 0, "number of results (default from settings)")
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "output as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historySimilarCmd)
	rootCmd.AddCommand(historyCmd)
}

// historyItem is the JSON shape of one entry.
type historyItem struct {
	ID        int64    `json:"id"`
	Source    string   `json:"source"`
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Timestamp string   `json:"timestamp"`
	Score     *float64 `json:"score,omitempty"`
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errNotConfigured("history")
	}

	entries, err := historyService.List(cmd.Context(), historySource)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	return outputHistory(cmd, entries, nil)
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errNotConfigured("history")
	}

	entries, err := historyService.SearchKeyword(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("failed to search history: %w", err)
	}
	return outputHistory(cmd, entries, nil)
}

func runHistorySimilar(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errNotConfigured("history")
	}

	result, err := historyService.SearchSemantic(cmd.Context(), strings.Join(args, " "), historyTopK)
	if err != nil {
		return describeError(fmt.Errorf("failed to search history: %w", err))
	}

	entries := make([]domain.QAEntry, len(result.Entries))
	scores := make([]float64, len(result.Entries))
	for i, e := range result.Entries {
		entries[i] = e.Entry
		scores[i] = e.Score
	}
	if err := outputHistory(cmd, entries, scores); err != nil {
		return err
	}
	if result.Skipped > 0 && !historyJSON {
		cmd.Printf("(%d entries without a usable embedding were skipped)\n", result.Skipped)
	}
	return nil
}

func outputHistory(cmd *cobra.Command, entries []domain.QAEntry, scores []float64) error {
	if historyJSON {
		items := make([]historyItem, len(entries))
		for i, e := range entries {
			items[i] = historyItem{
				ID:        e.ID,
				Source:    e.Source,
				Question:  e.Question,
				Answer:    e.Answer,
				Timestamp: e.CreatedAt.Format(time.RFC3339),
			}
			if scores != nil {
				items[i].Score = &scores[i]
			}
		}
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		cmd.Println("No history found.")
		return nil
	}

	for i, e := range entries {
		header := fmt.Sprintf("[%d] %s", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"))
		if scores != nil {
			header += fmt.Sprintf(" (%.2f)", scores[i])
		}
		cmd.Println(header)
		if e.Source != "" {
			cmd.Printf("  Sources:  %s\n", e.Source)
		}
		cmd.Printf("  Question: %s\n", e.Question)
		cmd.Printf("  Answer:   %s\n", e.Answer)
		cmd.Println()
	}
	return nil
}
