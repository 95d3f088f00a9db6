package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	askTopK   int
	askDocs   []string
	askJSON   bool
	askChunks bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the ingested documents",
	Long: `Embeds the question, retrieves the most similar chunks and asks the
language model to answer from them. The answer is saved to the history.

Use --doc (repeatable) to restrict retrieval to named documents.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from settings)")
	askCmd.Flags().StringSliceVarP(&askDocs, "doc", "d", nil, "restrict to these documents")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askChunks, "show-chunks", false, "print the retrieved chunks")
	rootCmd.AddCommand(askCmd)
}

// askResult is the JSON shape of an answer, matching the HTTP API.
type askResult struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errNotConfigured("question")
	}

	question := strings.Join(args, " ")
	ctx := cmd.Context()

	var (
		answer *domain.Answer
		err    error
	)
	if len(askDocs) > 0 {
		answer, err = questionService.AskScoped(ctx, askDocs, question, askTopK)
	} else {
		answer, err = questionService.Ask(ctx, question, askTopK)
	}
	if err != nil {
		return describeError(err)
	}

	if askJSON {
		return outputAskJSON(cmd, answer)
	}
	outputAskText(cmd, answer)
	return nil
}

func outputAskJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(askResult{
		Question: answer.Question,
		Answer:   answer.Answer,
		Sources:  answer.Sources,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAskText(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Answer)
	if !answer.Found {
		return
	}
	cmd.Println()
	cmd.Printf("Sources: %s\n", domain.JoinSources(answer.Sources))

	if askChunks {
		cmd.Println()
		for i, c := range answer.Chunks {
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, c.Chunk.Source, c.Score)
			cmd.Printf("      %s\n", c.Chunk.Text)
		}
	}
}
