// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval pipeline lives here: IngestService chunks, embeds and
// stores documents, QuestionService retrieves context and generates
// answers, DocumentService keeps chunks and history consistent across
// renames and deletes, and HistoryService reads past answers.
package services
