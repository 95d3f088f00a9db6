// Package sqlite provides the SQLite-backed KnowledgeStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Two tables are kept:
//
//   - chunks: document fragments and their embeddings
//   - qa_history: answered questions, their answers and question embeddings
//
// Embeddings are stored as JSON arrays so the database stays readable with
// the sqlite3 shell.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.docqa/data/docqa.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. Rename and delete run in a single transaction across
// both tables.
package sqlite
