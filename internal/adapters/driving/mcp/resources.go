package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for docqa resources.
	uriScheme = "docqa://"

	mimeJSON = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Ingested documents with their chunk counts",
		MIMEType:    mimeJSON,
	}, s.handleDocumentsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Every answered question, newest first",
		MIMEType:    mimeJSON,
	}, s.handleHistoryResource)

	// Document names are path-escaped in the URI.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{name}/history",
		Name:        "document-history",
		Description: "Questions answered from exactly this document",
		MIMEType:    mimeJSON,
	}, s.handleDocumentHistoryResource)
}

// handleDocumentsResource returns the document listing.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return jsonResult(req.Params.URI, []DocumentOutput{})
	}

	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]DocumentOutput, len(docs))
	for i, d := range docs {
		infos[i] = DocumentOutput{Name: d.Source, Chunks: d.ChunkCount}
	}
	return jsonResult(req.Params.URI, infos)
}

// handleHistoryResource returns the full history.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return s.historyResult(ctx, req.Params.URI, "")
}

// handleDocumentHistoryResource returns history entries for one document.
func (s *Server) handleDocumentHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractDocumentName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return s.historyResult(ctx, req.Params.URI, name)
}

func (s *Server) historyResult(ctx context.Context, uri, source string) (*mcp.ReadResourceResult, error) {
	if s.ports.History == nil {
		return jsonResult(uri, []HistoryEntryOutput{})
	}

	entries, err := s.ports.History.List(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	out := make([]HistoryEntryOutput, len(entries))
	for i := range entries {
		out[i] = toHistoryOutput(entries[i], nil)
	}
	return jsonResult(uri, out)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentName extracts the document name from a URI like
// docqa://documents/{name}/history.
func extractDocumentName(uri string) string {
	const prefix = uriScheme + "documents/"
	const suffix = "/history"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}

	escaped := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	name, err := url.PathUnescape(escaped)
	if err != nil {
		return ""
	}
	return name
}
