// Package mcp provides an MCP (Model Context Protocol) server adapter for docqa.
// It lets AI assistants ask questions against the ingested documents and
// browse the document list and answer history.
package mcp

import "errors"

// ErrMissingQuestionService is returned when the question service is not provided.
var ErrMissingQuestionService = errors.New("mcp: question service is required")
