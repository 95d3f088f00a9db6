package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/connectors/filesystem"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

var (
	ingestName    string
	ingestReplace bool
	ingestWatch   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Add documents to the knowledge store",
	Long: `Extracts the text of each file, splits it into chunks, embeds every chunk
and stores them under the file's base name (or --name).

With --watch, every supported file in the folder is ingested and the folder
is then watched: created or modified files are re-ingested and deleted files
are removed from the store.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "document name (single file only)")
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "delete an existing document with the same name first")
	ingestCmd.Flags().StringVarP(&ingestWatch, "watch", "w", "", "folder to ingest and keep watching")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}
	if len(args) == 0 && ingestWatch == "" {
		return errors.New("at least one file or --watch is required")
	}
	if ingestName != "" && len(args) != 1 {
		return errors.New("--name can only be used with a single file")
	}

	ctx := cmd.Context()
	for _, path := range args {
		if err := ingestOne(ctx, cmd, path, ingestName, ingestReplace); err != nil {
			return describeError(err)
		}
	}

	if ingestWatch != "" {
		return watchFolder(ctx, cmd, ingestWatch)
	}
	return nil
}

// ingestOne ingests a single file, optionally replacing a stored document.
func ingestOne(ctx context.Context, cmd *cobra.Command, path, name string, replace bool) error {
	if name == "" {
		name = filepath.Base(path)
	}
	if replace {
		if err := deleteIfExists(ctx, name); err != nil {
			return err
		}
	}

	result, err := ingestService.IngestFile(ctx, path, name)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}
	if result.Skipped {
		cmd.Printf("Skipped %s: no text found\n", path)
		return nil
	}
	cmd.Printf("Ingested %s as %q (%d chunks)\n", path, result.Document, result.Chunks)
	return nil
}

func deleteIfExists(ctx context.Context, name string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}
	_, err := documentService.Delete(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("replace %q: %w", name, err)
	}
	return nil
}

// watchFolder ingests every supported file below dir, then follows changes
// until the context is cancelled.
func watchFolder(ctx context.Context, cmd *cobra.Command, dir string) error {
	watcher := filesystem.New(dir, ingestService.SupportedExtensions())
	defer watcher.Close()

	files, err := watcher.Scan(ctx)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := ingestOne(ctx, cmd, path, "", true); err != nil {
			logger.Warn("%v", err)
		}
	}

	changes, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)

	for change := range changes {
		applyChange(ctx, cmd, change)
	}
	return nil
}

// applyChange keeps the store in line with one file change. Failures are
// logged so a single bad file does not stop the watch.
func applyChange(ctx context.Context, cmd *cobra.Command, change filesystem.Change) {
	logger.Debug("%s: %s", change.Type, change.Path)

	switch change.Type {
	case filesystem.ChangeUpserted:
		if err := ingestOne(ctx, cmd, change.Path, "", true); err != nil {
			logger.Warn("%v", err)
		}
	case filesystem.ChangeDeleted:
		name := filepath.Base(change.Path)
		if documentService == nil {
			return
		}
		_, err := documentService.Delete(ctx, name)
		switch {
		case err == nil:
			cmd.Printf("Removed %q\n", name)
		case !errors.Is(err, domain.ErrNotFound):
			logger.Warn("Removing %q: %v", name, err)
		}
	}
}
