package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Response bodies.
type (
	uploadResponse struct {
		Message   string `json:"message"`
		SavedAs   string `json:"saved_as"`
		SizeBytes int64  `json:"size_bytes"`
		Mime      string `json:"mime"`
		Chunks    int    `json:"chunks"`
	}

	answerResponse struct {
		Question string  `json:"question"`
		Answer   string  `json:"answer"`
		Sources  *string `json:"sources"`
	}

	documentResponse struct {
		Source string `json:"source"`
		Chunks int    `json:"chunks"`
	}

	renameResponse struct {
		Status  string `json:"status"`
		OldName string `json:"old_name"`
		NewName string `json:"new_name"`
	}

	deleteResponse struct {
		Status   string `json:"status"`
		Document string `json:"document_name"`
		Chunks   int64  `json:"chunks"`
		History  int64  `json:"history"`
	}

	historyResponse struct {
		ID        int64    `json:"id"`
		Source    string   `json:"source"`
		Question  string   `json:"question"`
		Answer    string   `json:"answer"`
		Timestamp string   `json:"timestamp"`
		Score     *float64 `json:"score,omitempty"`
	}

	similarResponse struct {
		Entries []historyResponse `json:"entries"`
		Skipped int               `json:"skipped"`
	}
)

const statusSuccess = "success"

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return detail(c, http.StatusBadRequest, "Missing file")
	}

	name := domain.SanitizeDocumentName(fh.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := s.allowed[ext]; !ok {
		return detail(c, http.StatusBadRequest, "Unsupported file type: "+ext)
	}
	if fh.Size == 0 {
		return detail(c, http.StatusBadRequest, "Empty file")
	}
	if fh.Size > s.config.MaxUploadBytes {
		return detail(c, http.StatusRequestEntityTooLarge, s.tooLarge())
	}

	src, err := fh.Open()
	if err != nil {
		return detail(c, http.StatusBadRequest, "Read failed: "+err.Error())
	}
	defer src.Close()

	ctx := c.Request().Context()
	stored, err := s.ports.Files.Save(ctx, name, src, s.config.MaxUploadBytes)
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		return detail(c, http.StatusRequestEntityTooLarge, s.tooLarge())
	case errors.Is(err, domain.ErrInvalidInput):
		return detail(c, http.StatusBadRequest, "Empty file")
	case err != nil:
		return detail(c, http.StatusInternalServerError, "Save failed: "+err.Error())
	}

	result, err := s.ports.Ingest.IngestFile(ctx, s.ports.Files.Path(stored), stored)
	if err != nil {
		if rmErr := s.ports.Files.Remove(stored); rmErr != nil {
			logger.Warn("Removing failed upload %s: %v", stored, rmErr)
		}
		if errors.Is(err, domain.ErrUnsupportedType) {
			return detail(c, http.StatusBadRequest, "Unsupported file type: "+ext)
		}
		return detail(c, statusFor(err), "Processing failed: "+err.Error())
	}

	mimeType := fh.Header.Get(echo.HeaderContentType)
	if mimeType == "" {
		mimeType = mime.TypeByExtension(ext)
	}

	return c.JSON(http.StatusOK, uploadResponse{
		Message:   "File uploaded and processed successfully",
		SavedAs:   stored,
		SizeBytes: fh.Size,
		Mime:      mimeType,
		Chunks:    result.Chunks,
	})
}

func (s *Server) tooLarge() string {
	return fmt.Sprintf("File too large (max %dMB)", s.config.MaxUploadBytes>>20)
}

func (s *Server) handleAsk(c echo.Context) error {
	k, err := topK(c)
	if err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}
	question, err := readQuestion(c.Request().Body)
	if err != nil {
		return detail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if strings.TrimSpace(question) == "" {
		return detail(c, http.StatusBadRequest, "Question cannot be empty")
	}

	answer, err := s.ports.Question.Ask(c.Request().Context(), question, k)
	if errors.Is(err, domain.ErrNoDocuments) {
		return detail(c, http.StatusNotFound, "Please upload a document")
	}
	if err != nil {
		return fail(c, "Question processing failed", err)
	}
	return c.JSON(http.StatusOK, toAnswerResponse(answer))
}

// readQuestion accepts {"question": "..."}, a bare JSON string or plain text.
func readQuestion(body io.Reader) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(trimmed, "{"):
		var req struct {
			Question string `json:"question"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return "", err
		}
		return req.Question, nil
	case strings.HasPrefix(trimmed, `"`):
		var q string
		if err := json.Unmarshal(raw, &q); err != nil {
			return "", err
		}
		return q, nil
	default:
		return trimmed, nil
	}
}

func (s *Server) handleSearchDocuments(c echo.Context) error {
	k, err := topK(c)
	if err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}
	form, err := c.FormParams()
	if err != nil {
		return detail(c, http.StatusBadRequest, "Invalid form: "+err.Error())
	}

	var names []string
	for _, key := range []string{"document_names", "document_names[]"} {
		for _, v := range form[key] {
			if v = strings.TrimSpace(v); v != "" {
				names = append(names, v)
			}
		}
	}
	query := form.Get("query")
	if strings.TrimSpace(query) == "" {
		return detail(c, http.StatusBadRequest, "Question cannot be empty")
	}
	if len(names) == 0 {
		return detail(c, http.StatusBadRequest, "At least one document name is required")
	}

	answer, err := s.ports.Question.AskScoped(c.Request().Context(), names, query, k)
	var missing *domain.MissingDocumentsError
	if errors.As(err, &missing) {
		return detail(c, http.StatusNotFound, "Document(s) not found: "+strings.Join(missing.Names, ", "))
	}
	if err != nil {
		return fail(c, "Question processing failed", err)
	}
	return c.JSON(http.StatusOK, toAnswerResponse(answer))
}

func (s *Server) handleListDocuments(c echo.Context) error {
	docs, err := s.ports.Document.List(c.Request().Context())
	if err != nil {
		return fail(c, "List failed", err)
	}
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse{Source: d.Source, Chunks: d.ChunkCount})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleRenameDocument(c echo.Context) error {
	oldName := strings.TrimSpace(c.FormValue("document_name"))
	newName := strings.TrimSpace(c.FormValue("new_name"))
	if oldName == "" || newName == "" {
		return detail(c, http.StatusBadRequest, "document_name and new_name are required")
	}
	newName = domain.SanitizeDocumentName(newName)

	if _, err := s.ports.Document.Rename(c.Request().Context(), oldName, newName); err != nil {
		return fail(c, "Rename failed", err)
	}
	return c.JSON(http.StatusOK, renameResponse{Status: statusSuccess, OldName: oldName, NewName: newName})
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	name := strings.TrimSpace(c.FormValue("document_name"))
	if name == "" {
		return detail(c, http.StatusBadRequest, "document_name is required")
	}

	change, err := s.ports.Document.Delete(c.Request().Context(), name)
	if err != nil {
		return fail(c, "Delete failed", err)
	}
	return c.JSON(http.StatusOK, deleteResponse{
		Status:   statusSuccess,
		Document: name,
		Chunks:   change.Chunks,
		History:  change.History,
	})
}

func (s *Server) handleListHistory(c echo.Context) error {
	entries, err := s.ports.History.List(c.Request().Context(), c.QueryParam("source"))
	if err != nil {
		return fail(c, "History failed", err)
	}
	return c.JSON(http.StatusOK, toHistoryResponses(entries))
}

func (s *Server) handleSearchHistory(c echo.Context) error {
	q := c.QueryParam("q")
	if strings.TrimSpace(q) == "" {
		return detail(c, http.StatusBadRequest, "Query parameter q is required")
	}
	entries, err := s.ports.History.SearchKeyword(c.Request().Context(), q)
	if err != nil {
		return fail(c, "History search failed", err)
	}
	return c.JSON(http.StatusOK, toHistoryResponses(entries))
}

func (s *Server) handleSimilarHistory(c echo.Context) error {
	k, err := topK(c)
	if err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}
	q := c.QueryParam("q")
	if strings.TrimSpace(q) == "" {
		return detail(c, http.StatusBadRequest, "Query parameter q is required")
	}

	result, err := s.ports.History.SearchSemantic(c.Request().Context(), q, k)
	if err != nil {
		return fail(c, "History search failed", err)
	}
	out := similarResponse{Entries: make([]historyResponse, 0, len(result.Entries)), Skipped: result.Skipped}
	for i := range result.Entries {
		score := result.Entries[i].Score
		h := toHistoryResponse(result.Entries[i].Entry)
		h.Score = &score
		out.Entries = append(out.Entries, h)
	}
	return c.JSON(http.StatusOK, out)
}

// topK parses the optional top_k query parameter. Zero means the service default.
func topK(c echo.Context) (int, error) {
	raw := c.QueryParam("top_k")
	if raw == "" {
		return 0, nil
	}
	k, err := strconv.Atoi(raw)
	if err != nil || k < 1 {
		return 0, errors.New("top_k must be a positive integer")
	}
	return k, nil
}

func toAnswerResponse(a *domain.Answer) answerResponse {
	out := answerResponse{Question: a.Question, Answer: a.Answer}
	if len(a.Sources) > 0 {
		joined := domain.JoinSources(a.Sources)
		out.Sources = &joined
	}
	return out
}

func toHistoryResponse(e domain.QAEntry) historyResponse {
	return historyResponse{
		ID:        e.ID,
		Source:    e.Source,
		Question:  e.Question,
		Answer:    e.Answer,
		Timestamp: e.CreatedAt.Format(time.RFC3339),
	}
}

func toHistoryResponses(entries []domain.QAEntry) []historyResponse {
	out := make([]historyResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toHistoryResponse(entries[i]))
	}
	return out
}
