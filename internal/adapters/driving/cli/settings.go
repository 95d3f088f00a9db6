package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, chunking, retrieval and server options.

Settings are stored in ~/.docqa/config.toml. Environment variables named
DOCQA_<SECTION>_<KEY> (for example DOCQA_LLM_API_KEY) override the file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set one setting by its dotted key, for example:

  docqa settings set retrieval.top_k 8
  docqa settings set llm.temperature 0.2

Run 'docqa settings keys' for the full list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsAPIKeyCmd = &cobra.Command{
	Use:       "api-key [embedding|llm]",
	Short:     "Set a provider API key without echoing it",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"embedding", "llm"},
	RunE:      runSettingsAPIKey,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used for ingestion and retrieval.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to generate answers.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsAPIKeyCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Requests/s: %g\n", settings.Embedding.RequestsPerSecond)
	}
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Printf("  Temperature: %g\n", settings.LLM.Temperature)
	cmd.Printf("  Max tokens: %d\n", settings.LLM.MaxTokens)
	cmd.Println()

	cmd.Println("[Chunker]")
	cmd.Printf("  Chunk size: %d\n", settings.Chunker.ChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.Chunker.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Scoped top K: %d\n", settings.Retrieval.ScopedTopK)
	cmd.Printf("  History top K: %d\n", settings.Retrieval.HistoryTopK)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Address)
	if settings.Server.UploadDir != "" {
		cmd.Printf("  Upload dir: %s\n", settings.Server.UploadDir)
	}
	cmd.Printf("  Max upload: %d bytes\n", settings.Server.MaxUploadBytes)

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider.IsLocal() && baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if isSecretKey(key) {
		shown = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsAPIKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	var key string
	switch args[0] {
	case "embedding":
		key = "embedding.api_key"
	case "llm":
		key = "llm.api_key"
	default:
		return fmt.Errorf("%w: expected embedding or llm, got %q", domain.ErrInvalidInput, args[0])
	}

	cmd.Print("Enter API key: ")
	apiKey := readSecret(cmd, bufio.NewReader(cmd.InOrStdin()))
	if apiKey == "" {
		return fmt.Errorf("%w: API key is required", domain.ErrInvalidInput)
	}

	if err := settingsService.Set(key, apiKey); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Saved %s API key %s\n", args[0], maskAPIKey(apiKey))
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if services == nil || services.Ping == nil {
		return errors.New("models not configured. Run 'docqa settings show' to check the providers")
	}

	cmd.Print("Contacting providers... ")
	if err := services.Ping(cmd.Context()); err != nil {
		cmd.Println("FAILED")
		return err
	}
	cmd.Println("OK")
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), providerWizard{
		label:     "Embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		save:      settingsService.SetEmbeddingProvider,
		validate:  settingsService.ValidateEmbeddingConfig,
	})
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), providerWizard{
		label:     "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		save:      settingsService.SetLLMProvider,
		validate:  settingsService.ValidateLLMConfig,
	})
}

// providerWizard describes one interactive provider setup.
type providerWizard struct {
	label     string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	save      func(provider domain.AIProvider, model, apiKey string) error
	validate  func() error
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, w providerWizard) error {
	cmd.Printf("Select %s provider\n", w.label)
	for i, p := range w.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := w.providers[parseChoice(readLine(reader), len(w.providers), 1)-1]

	model := w.models[provider]
	cmd.Printf("Enter model name [%s]: ", model)
	if m := readLine(reader); m != "" {
		model = m
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readSecret(cmd, reader)
		if apiKey == "" {
			return fmt.Errorf("%w: %s needs an API key", domain.ErrInvalidInput, provider.Description())
		}
	}

	if err := w.save(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", w.label, err)
	}

	cmd.Print("Validating configuration... ")
	if err := w.validate(); err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("%s configuration validation failed: %w", w.label, err)
	}
	cmd.Println("OK")
	cmd.Printf("%s provider configured: %s (%s)\n", w.label, provider.Description(), model)
	return nil
}

//nolint:errcheck // a short read still yields the typed text
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// parseChoice returns the 1-based menu choice in input, or defaultVal.
func parseChoice(input string, maxVal, defaultVal int) int {
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readSecret reads without echo from a terminal, otherwise one line.
func readSecret(cmd *cobra.Command, reader *bufio.Reader) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// isSecretKey reports whether a dotted settings key holds a credential.
func isSecretKey(key string) bool {
	return strings.HasSuffix(key, ".api_key")
}
