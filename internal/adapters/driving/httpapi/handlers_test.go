package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestHandleUpload(t *testing.T) {
	t.Run("stores and ingests the file", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(uploadRequest(t, "notes.txt", "text/plain", []byte("hello world")))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body uploadResponse
		decode(t, rec, &body)
		assert.Equal(t, "File uploaded and processed successfully", body.Message)
		assert.Equal(t, "notes.txt", body.SavedAs)
		assert.Equal(t, int64(11), body.SizeBytes)
		assert.Equal(t, "text/plain", body.Mime)
		assert.Equal(t, 3, body.Chunks)

		assert.Equal(t, "notes.txt", f.ingest.lastName)
		assert.Equal(t, f.files.Path("notes.txt"), f.ingest.lastPath)
		assert.Equal(t, "hello world", f.ingest.lastData)
		assert.True(t, f.files.Exists("notes.txt"))
	})

	t.Run("duplicate names get a suffix", func(t *testing.T) {
		f := newFixture(t, Config{})

		first := f.do(uploadRequest(t, "notes.txt", "text/plain", []byte("one")))
		second := f.do(uploadRequest(t, "notes.txt", "text/plain", []byte("two")))

		require.Equal(t, http.StatusOK, first.Code)
		require.Equal(t, http.StatusOK, second.Code)
		var body uploadResponse
		decode(t, second, &body)
		assert.Equal(t, "notes_1.txt", body.SavedAs)
	})

	t.Run("sanitises the file name", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(uploadRequest(t, `..\..\a,b.txt`, "text/plain", []byte("x")))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body uploadResponse
		decode(t, rec, &body)
		assert.Equal(t, "a_b.txt", body.SavedAs)
	})

	t.Run("rejects unsupported types", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(uploadRequest(t, "tool.exe", "application/octet-stream", []byte("MZ")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Unsupported file type: .exe", detailOf(t, rec))
		assert.Empty(t, f.ingest.lastName)
	})

	t.Run("rejects empty files", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(uploadRequest(t, "empty.txt", "text/plain", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Empty file", detailOf(t, rec))
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		f := newFixture(t, Config{MaxUploadBytes: 1 << 20})

		rec := f.do(uploadRequest(t, "big.txt", "text/plain", []byte(strings.Repeat("x", 1<<20+1))))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "File too large (max 1MB)", detailOf(t, rec))
		assert.False(t, f.files.Exists("big.txt"))
	})

	t.Run("missing file field", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(postForm("/upload", url.Values{"x": {"y"}}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing file", detailOf(t, rec))
	})

	t.Run("processing failure removes the file", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.ingest.err = errors.New("embedding backend down")

		rec := f.do(uploadRequest(t, "notes.txt", "text/plain", []byte("hello")))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Processing failed: embedding backend down", detailOf(t, rec))
		assert.False(t, f.files.Exists("notes.txt"))
	})

	t.Run("unavailable embedder is 503", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.ingest.err = domain.ErrEmbeddingUnavailable

		rec := f.do(uploadRequest(t, "notes.txt", "text/plain", []byte("hello")))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleAsk(t *testing.T) {
	answered := &domain.Answer{
		Question: "what?",
		Answer:   "this",
		Sources:  []string{"b.md", "a.md"},
		Found:    true,
	}

	t.Run("accepts a JSON object", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.question.answer = answered

		req := httptest.NewRequest(http.MethodPost, "/ask?top_k=3", strings.NewReader(`{"question":"what?"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := f.do(req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"question":"what?","answer":"this","sources":"a.md, b.md"}`, rec.Body.String())
		assert.Equal(t, "what?", f.question.lastQuestion)
		assert.Equal(t, 3, f.question.lastK)
	})

	t.Run("accepts a JSON string", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`"how?"`)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "how?", f.question.lastQuestion)
		assert.Equal(t, 0, f.question.lastK)
	})

	t.Run("accepts plain text", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader("why not?\n")))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "why not?", f.question.lastQuestion)
	})

	t.Run("no hits returns null sources", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`"q"`)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"question":"q","answer":"No relevant document chunks found.","sources":null}`,
			rec.Body.String())
	})

	t.Run("empty question", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"  "}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Question cannot be empty", detailOf(t, rec))
	})

	t.Run("bad top_k", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(httptest.NewRequest(http.MethodPost, "/ask?top_k=zero", strings.NewReader(`"q"`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.question.lastQuestion)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no documents", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.question.err = domain.ErrNoDocuments

		rec := f.do(httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`"q"`)))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Please upload a document", detailOf(t, rec))
	})

	t.Run("generation failure", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.question.err = errors.New("model crashed")

		rec := f.do(httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`"q"`)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Question processing failed: model crashed", detailOf(t, rec))
	})
}

func TestHandleSearchDocuments(t *testing.T) {
	t.Run("passes every document name", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.question.answer = &domain.Answer{Question: "q", Answer: "a", Sources: []string{"x.md"}, Found: true}

		rec := f.do(postForm("/search-doc?top_k=4", url.Values{
			"document_names":   {"x.md", "y.md"},
			"document_names[]": {"z.md"},
			"query":            {"q"},
		}))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, []string{"x.md", "y.md", "z.md"}, f.question.lastNames)
		assert.Equal(t, 4, f.question.lastK)
		assert.JSONEq(t, `{"question":"q","answer":"a","sources":"x.md"}`, rec.Body.String())
	})

	t.Run("missing documents are listed", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.question.err = &domain.MissingDocumentsError{Names: []string{"a.md", "b.md"}}

		rec := f.do(postForm("/search-doc", url.Values{"document_names": {"a.md", "b.md"}, "query": {"q"}}))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Document(s) not found: a.md, b.md", detailOf(t, rec))
	})

	t.Run("empty query", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(postForm("/search-doc", url.Values{"document_names": {"a.md"}, "query": {" "}}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Question cannot be empty", detailOf(t, rec))
	})

	t.Run("no document names", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(postForm("/search-doc", url.Values{"query": {"q"}}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleListDocuments(t *testing.T) {
	t.Run("lists documents", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.document.documents = []domain.DocumentSummary{
			{Source: "new.md", ChunkCount: 2},
			{Source: "old.md", ChunkCount: 7},
		}

		rec := f.do(httptest.NewRequest(http.MethodGet, "/documents", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"source":"new.md","chunks":2},{"source":"old.md","chunks":7}]`, rec.Body.String())
	})

	t.Run("empty store is an empty array", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(httptest.NewRequest(http.MethodGet, "/documents", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestHandleRenameDocument(t *testing.T) {
	t.Run("sanitises the new name", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(postForm("/document/rename", url.Values{
			"document_name": {"old.md"},
			"new_name":      {"../new,name.md"},
		}))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"status":"success","old_name":"old.md","new_name":"new_name.md"}`, rec.Body.String())
		assert.Equal(t, "old.md", f.document.lastOld)
		assert.Equal(t, "new_name.md", f.document.lastNew)
	})

	t.Run("maps service errors", func(t *testing.T) {
		cases := []struct {
			err  error
			code int
		}{
			{domain.ErrNotFound, http.StatusNotFound},
			{domain.ErrAlreadyExists, http.StatusConflict},
			{domain.ErrInvalidInput, http.StatusBadRequest},
			{errors.New("disk full"), http.StatusInternalServerError},
		}
		for _, tc := range cases {
			f := newFixture(t, Config{})
			f.document.err = tc.err

			rec := f.do(postForm("/document/rename", url.Values{"document_name": {"a"}, "new_name": {"b"}}))

			assert.Equal(t, tc.code, rec.Code, tc.err.Error())
		}
	})

	t.Run("requires both names", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(postForm("/document/rename", url.Values{"document_name": {"a"}}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.document.lastOld)
	})
}

func TestHandleDeleteDocument(t *testing.T) {
	t.Run("reports removed rows", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.document.change = domain.SourceChange{Chunks: 4, History: 1}

		rec := f.do(postForm("/document/delete", url.Values{"document_name": {"a.md"}}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"success","document_name":"a.md","chunks":4,"history":1}`, rec.Body.String())
		assert.Equal(t, "a.md", f.document.lastDelete)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.document.err = domain.ErrNotFound

		rec := f.do(postForm("/document/delete", url.Values{"document_name": {"a.md"}}))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleHistory(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []domain.QAEntry{
		{ID: 2, Source: "a.md, b.md", Question: "q", Answer: "a", CreatedAt: created},
	}
	const want = `[{"id":2,"source":"a.md, b.md","question":"q","answer":"a","timestamp":"2025-03-01T12:00:00Z"}]`

	t.Run("list filters by source", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.history.entries = entries

		rec := f.do(httptest.NewRequest(http.MethodGet, "/history?source=a.md", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, want, rec.Body.String())
		assert.Equal(t, "a.md", f.history.lastSource)
	})

	t.Run("keyword search", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.history.entries = entries

		rec := f.do(httptest.NewRequest(http.MethodGet, "/history/search?q=cat", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, want, rec.Body.String())
		assert.Equal(t, "cat", f.history.lastQuery)
	})

	t.Run("keyword search requires q", func(t *testing.T) {
		f := newFixture(t, Config{})

		rec := f.do(httptest.NewRequest(http.MethodGet, "/history/search", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("similar includes scores", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.history.scored = &domain.HistorySearchResult{
			Entries: []domain.ScoredQAEntry{{Entry: entries[0], Score: 0.5}},
			Skipped: 1,
		}

		rec := f.do(httptest.NewRequest(http.MethodGet, "/history/similar?q=cat&top_k=2", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"entries":[{"id":2,"source":"a.md, b.md","question":"q","answer":"a",`+
			`"timestamp":"2025-03-01T12:00:00Z","score":0.5}],"skipped":1}`, rec.Body.String())
		assert.Equal(t, 2, f.history.lastK)
	})

	t.Run("similar without embedder", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.history.err = domain.ErrEmbeddingUnavailable

		rec := f.do(httptest.NewRequest(http.MethodGet, "/history/similar?q=cat", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(&domain.MissingDocumentsError{Names: []string{"x"}}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(domain.ErrFileTooLarge))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(domain.ErrLLMUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(os.ErrPermission))
}
