package db

import (
	"context"
	"fmt"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// CreateBatchLog inserts the running row for a new orchestrator run.
func (d *DB) CreateBatchLog(ctx context.Context, log models.BatchLog) error {
	query := `
	INSERT INTO alert_processing_log (
		batch_id, processing_type, status, properties_processed, alerts_triggered,
		notifications_sent, notifications_failed, processing_time_ms, started_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := d.Pool.Exec(ctx, query,
		log.BatchID,
		log.ProcessingType,
		log.Status,
		log.PropertiesProcessed,
		log.AlertsTriggered,
		log.NotificationsSent,
		log.NotificationsFailed,
		log.ProcessingTimeMs,
		log.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create batch log: %w", err)
	}
	return nil
}

// FinishBatchLog records the terminal state and counters of a run.
func (d *DB) FinishBatchLog(ctx context.Context, log models.BatchLog) error {
	query := `
	UPDATE alert_processing_log
	SET status = $1, properties_processed = $2, alerts_triggered = $3,
	    notifications_sent = $4, notifications_failed = $5,
	    processing_time_ms = $6, error_message = $7, completed_at = $8
	WHERE batch_id = $9`

	result, err := d.Pool.Exec(ctx, query,
		log.Status,
		log.PropertiesProcessed,
		log.AlertsTriggered,
		log.NotificationsSent,
		log.NotificationsFailed,
		log.ProcessingTimeMs,
		log.ErrorMessage,
		log.CompletedAt,
		log.BatchID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish batch log: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no batch log updated for batch_id %s", log.BatchID)
	}
	return nil
}
