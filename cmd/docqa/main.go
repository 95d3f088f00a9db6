// Command docqa answers questions about local documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/ranking"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.SetInitializer(initialise)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// dir returns base joined with name, or "" so each store uses its default.
func dir(base, name string) string {
	if base == "" {
		return ""
	}
	return filepath.Join(base, name)
}

// initialise wires the driven adapters into the core services.
func initialise(opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore(dir(opts.DataDir, "data"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	uploadDir := settings.Server.UploadDir
	if uploadDir == "" {
		uploadDir = dir(opts.DataDir, "uploads")
	}
	uploads, err := file.NewUploadStore(uploadDir)
	if err != nil {
		store.Close()
		return nil, err
	}

	prompts, err := file.NewPromptStore(dir(opts.DataDir, "prompts"))
	if err != nil {
		store.Close()
		return nil, err
	}

	// Commands that never touch a model still work when the providers are
	// misconfigured; the others fail with ErrEmbeddingUnavailable or
	// ErrLLMUnavailable.
	var (
		embedder driven.EmbeddingService
		llm      driven.LLMService
	)
	models, err := ai.Init(settings)
	if err != nil {
		logger.Warn("%v", err)
	} else {
		embedder, llm = models.Embedding, models.LLM
	}

	extractor := normalisers.NewDefaultRegistry(settings.Server.MaxUploadBytes)
	splitter := chunker.New(
		chunker.WithChunkSize(settings.Chunker.ChunkSize),
		chunker.WithOverlap(settings.Chunker.Overlap),
	)
	engine := services.NewRetrievalEngine(store, embedder, ranking.NewLinear())
	locks := services.NewSourceLocks()

	return &cli.Services{
		Ingest: services.NewIngestService(store, splitter, embedder, extractor, locks),
		Question: services.NewQuestionService(
			store, engine, embedder, llm, prompts, services.DefaultQuestionConfig(*settings),
		),
		Document: services.NewDocumentService(store, locks).WithFileStore(uploads),
		History:  services.NewHistoryService(store, engine, settings.Retrieval.HistoryTopK),
		Settings: settingsService,
		Files:    uploads,
		Server:   settings.Server,
		Ping: func(ctx context.Context) error {
			if models == nil {
				return domain.ErrEmbeddingUnavailable
			}
			return models.Ping(ctx)
		},
		Close: func() error {
			return errors.Join(models.Close(), store.Close())
		},
	}, nil
}
