package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ==================== Source Lifecycle ====================

// RenameSource moves all chunks of oldName to newName and rewrites history
// source-sets, in one transaction. It fails with domain.ErrNotFound when
// oldName has no chunks and domain.ErrAlreadyExists when newName has some.
func (s *Store) RenameSource(ctx context.Context, oldName, newName string) (domain.SourceChange, error) {
	var change domain.SourceChange

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return change, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	oldCount, err := countChunks(ctx, tx, oldName)
	if err != nil {
		return change, err
	}
	if oldCount == 0 {
		return change, fmt.Errorf("document %q: %w", oldName, domain.ErrNotFound)
	}
	newCount, err := countChunks(ctx, tx, newName)
	if err != nil {
		return change, err
	}
	if newCount > 0 {
		return change, fmt.Errorf("document %q: %w", newName, domain.ErrAlreadyExists)
	}

	res, err := tx.ExecContext(ctx, "UPDATE chunks SET source = ? WHERE source = ?", newName, oldName)
	if err != nil {
		return change, fmt.Errorf("renaming chunks: %w", err)
	}
	if change.Chunks, err = res.RowsAffected(); err != nil {
		return change, fmt.Errorf("renaming chunks: %w", err)
	}

	err = rewriteSourceSets(ctx, tx, oldName, func(set string) (string, bool) {
		return domain.RenameInSources(set, oldName, newName)
	}, &change.History)
	if err != nil {
		return change, err
	}

	if err := tx.Commit(); err != nil {
		return change, fmt.Errorf("committing transaction: %w", err)
	}
	return change, nil
}

// DeleteSource removes all chunks of name and drops name from history
// source-sets in one transaction. Entries left without sources are deleted.
func (s *Store) DeleteSource(ctx context.Context, name string) (domain.SourceChange, error) {
	var change domain.SourceChange

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return change, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE source = ?", name)
	if err != nil {
		return change, fmt.Errorf("deleting chunks: %w", err)
	}
	if change.Chunks, err = res.RowsAffected(); err != nil {
		return change, fmt.Errorf("deleting chunks: %w", err)
	}

	err = rewriteSourceSets(ctx, tx, name, func(set string) (string, bool) {
		return domain.RemoveFromSources(set, name)
	}, &change.History)
	if err != nil {
		return change, err
	}

	if err := tx.Commit(); err != nil {
		return change, fmt.Errorf("committing transaction: %w", err)
	}
	return change, nil
}

func countChunks(ctx context.Context, tx *sql.Tx, source string) (int64, error) {
	var n int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE source = ?", source).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// rewriteSourceSets applies rewrite to every history source-set that may
// contain name. Sets that become empty delete their entry.
func rewriteSourceSets(
	ctx context.Context,
	tx *sql.Tx,
	name string,
	rewrite func(set string) (string, bool),
	touched *int64,
) error {
	// LIKE narrows the scan; rewrite decides on exact membership.
	rows, err := tx.QueryContext(ctx, `
		SELECT id, source FROM qa_history
		WHERE source IS NOT NULL AND source LIKE ? ESCAPE '\'
	`, likePatternExact(name))
	if err != nil {
		return fmt.Errorf("querying history sources: %w", err)
	}

	type update struct {
		id  int64
		set string
	}
	var updates []update
	for rows.Next() {
		var id int64
		var set string
		if err := rows.Scan(&id, &set); err != nil {
			rows.Close()
			return fmt.Errorf("scanning history source: %w", err)
		}
		if next, ok := rewrite(set); ok {
			updates = append(updates, update{id: id, set: next})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterating history sources: %w", err)
	}
	rows.Close()

	for _, u := range updates {
		if u.set == "" {
			_, err = tx.ExecContext(ctx, "DELETE FROM qa_history WHERE id = ?", u.id)
		} else {
			_, err = tx.ExecContext(ctx, "UPDATE qa_history SET source = ? WHERE id = ?", u.set, u.id)
		}
		if err != nil {
			return fmt.Errorf("updating history entry %d: %w", u.id, err)
		}
		*touched++
	}
	return nil
}
