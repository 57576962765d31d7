package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// EnqueueNotificationJobs inserts the channel jobs produced by fan-out.
func (d *DB) EnqueueNotificationJobs(ctx context.Context, jobs []models.NotificationJob) error {
	query := `
	INSERT INTO notification_queue (
		id, alert_instance_id, user_id, notification_type, recipient, subject,
		message, priority, status, retry_count, max_retries, scheduled_for, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	for _, job := range jobs {
		if job.ID == "" {
			job.ID = uuid.New().String()
		}
		_, err := d.Pool.Exec(ctx, query,
			job.ID,
			job.AlertInstanceID,
			job.UserID,
			job.NotificationType,
			job.Recipient,
			job.Subject,
			job.Message,
			job.Priority,
			job.Status,
			job.RetryCount,
			job.MaxRetries,
			job.ScheduledFor,
			job.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to enqueue %s job for alert %s: %w", job.NotificationType, job.AlertInstanceID, err)
		}
	}
	return nil
}

// DuePendingJobs selects pending jobs whose scheduled time has arrived,
// most urgent first, ties broken by age.
func (d *DB) DuePendingJobs(ctx context.Context, now time.Time, limit int) ([]models.NotificationJob, error) {
	query := `
	SELECT id, alert_instance_id, user_id, notification_type, recipient, subject,
	       message, priority, status, retry_count, max_retries, scheduled_for,
	       sent_at, error_message, created_at
	FROM notification_queue
	WHERE status = 'pending' AND scheduled_for <= $1
	ORDER BY priority ASC, created_at ASC
	LIMIT $2`

	rows, err := d.Pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.NotificationJob
	for rows.Next() {
		var job models.NotificationJob
		var errMsg *string
		err := rows.Scan(
			&job.ID,
			&job.AlertInstanceID,
			&job.UserID,
			&job.NotificationType,
			&job.Recipient,
			&job.Subject,
			&job.Message,
			&job.Priority,
			&job.Status,
			&job.RetryCount,
			&job.MaxRetries,
			&job.ScheduledFor,
			&job.SentAt,
			&errMsg,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification job: %w", err)
		}
		if errMsg != nil {
			job.ErrorMessage = *errMsg
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// MarkJobSent finalizes a delivered job.
func (d *DB) MarkJobSent(ctx context.Context, id string, sentAt time.Time) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE notification_queue SET status = 'sent', sent_at = $1 WHERE id = $2`,
		sentAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark job %s sent: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no job updated for id %s", id)
	}
	return nil
}

// RescheduleJob records a failed attempt and pushes the job's next
// attempt out to nextAttempt. The job stays pending.
func (d *DB) RescheduleJob(ctx context.Context, id string, retryCount int, nextAttempt time.Time, errMsg string) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE notification_queue
		 SET retry_count = $1, scheduled_for = $2, error_message = $3
		 WHERE id = $4`,
		retryCount, nextAttempt, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to reschedule job %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no job updated for id %s", id)
	}
	return nil
}

// MarkJobFailed puts a job into its terminal failed state.
func (d *DB) MarkJobFailed(ctx context.Context, id string, retryCount int, errMsg string) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE notification_queue
		 SET status = 'failed', retry_count = $1, error_message = $2
		 WHERE id = $3`,
		retryCount, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark job %s failed: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no job updated for id %s", id)
	}
	return nil
}

// ListNotificationsByUserID fetches a user's notification jobs with
// pagination, newest first.
func (d *DB) ListNotificationsByUserID(ctx context.Context, userID string, limit, offset int) ([]models.NotificationJob, error) {
	query := `
	SELECT id, alert_instance_id, user_id, notification_type, recipient, subject,
	       message, priority, status, retry_count, max_retries, scheduled_for,
	       sent_at, error_message, created_at
	FROM notification_queue
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3`

	rows, err := d.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var jobs []models.NotificationJob
	for rows.Next() {
		var job models.NotificationJob
		var errMsg *string
		err := rows.Scan(
			&job.ID,
			&job.AlertInstanceID,
			&job.UserID,
			&job.NotificationType,
			&job.Recipient,
			&job.Subject,
			&job.Message,
			&job.Priority,
			&job.Status,
			&job.RetryCount,
			&job.MaxRetries,
			&job.ScheduledFor,
			&job.SentAt,
			&errMsg,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification job: %w", err)
		}
		if errMsg != nil {
			job.ErrorMessage = *errMsg
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}
