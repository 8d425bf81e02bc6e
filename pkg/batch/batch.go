// Package batch tracks batch_session lifecycle (pending, processing,
// completed counts) against the same Postgres connection pkg/store uses.
package batch

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"

	"github.com/deedflow/pipeline/pkg/pipeline"
)

// PostgresBatchStore implements pipeline.BatchStore.
type PostgresBatchStore struct {
	db     *sqlx.DB
	Logger *log.Logger
}

// NewPostgresBatchStore wraps an already-migrated connection.
func NewPostgresBatchStore(db *sqlx.DB, logger *log.Logger) *PostgresBatchStore {
	return &PostgresBatchStore{db: db, Logger: logger}
}

// Create implements pipeline.BatchStore.
func (s *PostgresBatchStore) Create(ctx context.Context, batchID, name string, uploadedCount int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_session (batch_id, uploaded_count, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (batch_id) DO UPDATE SET uploaded_count = EXCLUDED.uploaded_count
	`, batchID, uploadedCount)
	if err != nil {
		return fmt.Errorf("create batch session: %w", err)
	}
	return nil
}

// MarkProcessing implements pipeline.BatchStore.
func (s *PostgresBatchStore) MarkProcessing(ctx context.Context, batchID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE batch_session SET processing_started_at = now(), status = 'processing'
		WHERE batch_id = $1
	`, batchID)
	if err != nil {
		return fmt.Errorf("mark batch processing: %w", err)
	}
	return nil
}

// MarkCompleted implements pipeline.BatchStore.
func (s *PostgresBatchStore) MarkCompleted(ctx context.Context, batchID string, processed, failed int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE batch_session SET processed_count = $2, failed_count = $3, status = 'completed'
		WHERE batch_id = $1
	`, batchID, processed, failed)
	if err != nil {
		return fmt.Errorf("mark batch completed: %w", err)
	}
	return nil
}

var _ pipeline.BatchStore = (*PostgresBatchStore)(nil)
