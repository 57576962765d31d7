package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// GetDocument fetches one stored document by id.
func (d *DB) GetDocument(ctx context.Context, id string) (models.Document, error) {
	query := `
	SELECT id, user_id, filename, storage_path, status, category, confidence,
	       error_message, processed_at, created_at
	FROM documents
	WHERE id = $1`

	var doc models.Document
	var category, errMsg *string
	err := d.Pool.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Filename,
		&doc.StoragePath,
		&doc.Status,
		&category,
		&doc.Confidence,
		&errMsg,
		&doc.ProcessedAt,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Document{}, fmt.Errorf("document %s not found", id)
		}
		return models.Document{}, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	if category != nil {
		doc.Category = *category
	}
	if errMsg != nil {
		doc.ErrorMessage = *errMsg
	}
	return doc, nil
}

// SetDocumentStatus moves a document into an intermediate state.
func (d *DB) SetDocumentStatus(ctx context.Context, id, status string) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE documents SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set document %s status: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no document updated for id %s", id)
	}
	return nil
}

// CompleteDocument records a successful extraction run.
func (d *DB) CompleteDocument(ctx context.Context, id, category string, confidence float64) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE documents
		 SET status = 'completed', category = $1, confidence = $2, processed_at = $3, error_message = NULL
		 WHERE id = $4`,
		category, confidence, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to complete document %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no document updated for id %s", id)
	}
	return nil
}

// FailDocument records a failed extraction run.
func (d *DB) FailDocument(ctx context.Context, id, errMsg string) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE documents SET status = 'failed', error_message = $1 WHERE id = $2`,
		errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to fail document %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no document updated for id %s", id)
	}
	return nil
}
