package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
)

var tuiTopK int

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:     "tui",
	Aliases: []string{"chat"},
	Short:   "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for docqa.

The TUI keeps a conversation with your documents, lets you restrict
questions to chosen documents, rename or delete them, and search the
history of previous answers.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Ask / Select
  Space    - Add a document to the question scope
  Esc      - Back / Cancel a running question
  ctrl+c   - Quit`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVarP(&tuiTopK, "top-k", "k", 0, "chunks per question and semantic history results (default from settings)")
	rootCmd.AddCommand(tuiCmd)
}

// newTUIApp builds the app from the configured services.
func newTUIApp(cmd *cobra.Command) (*tui.App, error) {
	ports := &tui.Ports{
		Question: questionService,
		Document: documentService,
		History:  historyService,
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	return app.WithContext(cmd.Context()).WithTopK(tuiTopK), nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := newTUIApp(cmd)
	if err != nil {
		return err
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
