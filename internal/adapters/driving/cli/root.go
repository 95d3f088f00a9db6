// Package cli provides the docqa command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// annotationNoServices marks commands that run without initialising services.
const annotationNoServices = "docqa/no-services"

// Options are the global flags handed to the Initializer.
type Options struct {
	// DataDir overrides the application directory.
	DataDir string

	// Verbose enables debug logging.
	Verbose bool
}

// Services holds everything the commands need. Nil services disable the
// commands that depend on them.
type Services struct {
	Ingest   driving.IngestService
	Question driving.QuestionService
	Document driving.DocumentService
	History  driving.HistoryService
	Settings driving.SettingsService

	// Files keeps uploaded originals for the HTTP API.
	Files driven.FileStore

	// Server configures the HTTP API.
	Server domain.ServerSettings

	// Ping checks that the model providers are reachable.
	Ping func(ctx context.Context) error

	// Close releases the store and model clients.
	Close func() error
}

// Initializer builds Services from the global flags.
type Initializer func(opts Options) (*Services, error)

var (
	initializer Initializer
	services    *Services
	globalOpts  Options

	ingestService   driving.IngestService
	questionService driving.QuestionService
	documentService driving.DocumentService
	historyService  driving.HistoryService
	settingsService driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about your documents",
	Long: `docqa ingests documents (PDF, DOCX, XLSX, HTML, Markdown, CSV, text),
stores their embedded chunks in a local SQLite database and answers questions
from the most relevant passages using a language model.

Every answer is kept in a searchable history.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.Verbose, "verbose", "v", false, "print debug output")
	rootCmd.PersistentFlags().StringVar(&globalOpts.DataDir, "data-dir", "", "application directory (default ~/.docqa)")
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// SetInitializer registers the function that builds services before a
// command runs.
func SetInitializer(fn Initializer) {
	initializer = fn
}

// SetServices installs services directly.
func SetServices(s *Services) {
	services = s
	if s == nil {
		ingestService, questionService, documentService = nil, nil, nil
		historyService, settingsService = nil, nil
		return
	}
	ingestService = s.Ingest
	questionService = s.Question
	documentService = s.Document
	historyService = s.History
	settingsService = s.Settings
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, then releases services.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if services != nil && services.Close != nil {
		if closeErr := services.Close(); closeErr != nil {
			logger.Warn("Closing services: %v", closeErr)
		}
	}
	return err
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(globalOpts.Verbose)

	if cmd.Annotations[annotationNoServices] != "" || services != nil || initializer == nil {
		return nil
	}

	s, err := initializer(globalOpts)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(s)
	return nil
}

// errNotConfigured reports a service the current configuration lacks.
func errNotConfigured(name string) error {
	return fmt.Errorf("%s service not configured", name)
}

// describeError turns sentinel errors into hints for the user.
func describeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoDocuments):
		return fmt.Errorf("%w. Run 'docqa ingest <file>' first", err)
	case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrLLMUnavailable):
		return fmt.Errorf("%w. Run 'docqa settings show' to check the providers", err)
	default:
		return err
	}
}
