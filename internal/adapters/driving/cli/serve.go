package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/httpapi"
)

var (
	serveAddr        string
	serveMaxUploadMB int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API used by the web frontend.

Endpoints:
  GET  /health              liveness check
  POST /upload              multipart "file" upload, stored and ingested
  POST /ask                 question body, optional ?top_k=
  POST /search-doc          form document_names and query
  GET  /documents           stored documents
  POST /document/rename     form document_name and new_name
  POST /document/delete     form document_name
  GET  /history             past answers, optional ?source=
  GET  /history/search      keyword search, ?q=
  GET  /history/similar     semantic search, ?q= and ?top_k=

Examples:
  docqa serve
  docqa serve --addr 0.0.0.0:8000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings)")
	serveCmd.Flags().Int64Var(&serveMaxUploadMB, "max-upload-mb", 0, "upload size limit in MB (default from settings)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if services == nil {
		return errNotConfigured("http")
	}

	cfg := httpapi.Config{
		Address:        services.Server.Address,
		MaxUploadBytes: services.Server.MaxUploadBytes,
	}
	if ingestService != nil {
		cfg.AllowedExtensions = ingestService.SupportedExtensions()
	}
	if serveAddr != "" {
		cfg.Address = serveAddr
	}
	if serveMaxUploadMB > 0 {
		cfg.MaxUploadBytes = serveMaxUploadMB << 20
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Ingest:   ingestService,
		Question: questionService,
		Document: documentService,
		History:  historyService,
		Files:    services.Files,
	}, cfg)
	if err != nil {
		return err
	}

	cmd.Printf("HTTP API listening on http://%s\n", server.Address())
	return server.Run(cmd.Context())
}
