package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

// ==================== QA History ====================

const historyColumns = "id, source, question, answer, embedding, created_at"

// AddQAEntry appends a history entry and sets its ID and CreatedAt.
func (s *Store) AddQAEntry(ctx context.Context, entry *domain.QAEntry) error {
	embedding, err := encodeEmbedding(entry.Embedding)
	if err != nil {
		return err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO qa_history (source, question, answer, embedding, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, nullString(entry.Source), entry.Question, entry.Answer, embedding, formatTime(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving history entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading history id: %w", err)
	}
	entry.ID = id
	return nil
}

// ListHistory returns history entries newest first, optionally restricted
// to an exact source-set.
func (s *Store) ListHistory(ctx context.Context, source string) ([]domain.QAEntry, error) {
	if source == "" {
		return s.queryHistory(ctx, "SELECT "+historyColumns+" FROM qa_history ORDER BY id DESC")
	}
	return s.queryHistory(ctx,
		"SELECT "+historyColumns+" FROM qa_history WHERE source = ? ORDER BY id DESC", source)
}

// SearchHistoryByKeyword returns entries whose question or answer contains
// keyword, case-insensitively, newest first.
// SQLite's lower() and LIKE only fold ASCII, so matching happens in Go.
func (s *Store) SearchHistoryByKeyword(ctx context.Context, keyword string) ([]domain.QAEntry, error) {
	all, err := s.queryHistory(ctx, "SELECT "+historyColumns+" FROM qa_history ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	var matches []domain.QAEntry
	for i := range all {
		if all[i].MatchesKeyword(keyword) {
			matches = append(matches, all[i])
		}
	}
	return matches, nil
}

// ScanHistory returns entries with a decodable embedding, oldest first,
// and counts the rest.
func (s *Store) ScanHistory(ctx context.Context) (domain.HistoryScan, error) {
	var scan domain.HistoryScan

	rows, err := s.db.QueryContext(ctx, "SELECT "+historyColumns+" FROM qa_history ORDER BY id")
	if err != nil {
		return scan, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, embedding, err := scanHistoryRow(rows)
		if err != nil {
			return scan, err
		}

		vec, err := decodeEmbedding(embedding)
		if err != nil {
			logger.Debug("history entry %d skipped: %v", entry.ID, err)
			scan.Skipped++
			continue
		}
		entry.Embedding = vec
		scan.Entries = append(scan.Entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return scan, fmt.Errorf("iterating history: %w", err)
	}
	return scan, nil
}

// queryHistory loads entries for listing. A bad embedding does not hide the
// entry; its Embedding is left nil.
func (s *Store) queryHistory(ctx context.Context, query string, args ...any) ([]domain.QAEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []domain.QAEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		entry, embedding, err := scanHistoryRow(rows)
		if err != nil {
			return nil, err
		}
		if vec, err := decodeEmbedding(embedding); err == nil {
			entry.Embedding = vec
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

func scanHistoryRow(rows *sql.Rows) (*domain.QAEntry, sql.NullString, error) {
	var entry domain.QAEntry
	var source, embedding sql.NullString
	var createdAt string

	if err := rows.Scan(&entry.ID, &source, &entry.Question, &entry.Answer, &embedding, &createdAt); err != nil {
		return nil, embedding, fmt.Errorf("scanning history entry: %w", err)
	}

	entry.Source = source.String
	entry.CreatedAt = parseTime(createdAt)
	return &entry, embedding, nil
}
