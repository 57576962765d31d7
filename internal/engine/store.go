package engine

import (
	"context"
	"time"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// AlertHistory is the slice of the store the dedup gate needs.
type AlertHistory interface {
	CountRecentAlerts(ctx context.Context, ruleID, propertyName string, level models.AlertLevel, since time.Time) (int, error)
}

// AlertSink persists triggered alerts and their notification jobs.
type AlertSink interface {
	CreateAlertInstance(ctx context.Context, inst models.AlertInstance) error
	EnqueueNotificationJobs(ctx context.Context, jobs []models.NotificationJob) error
}

// Store is everything the batch orchestrator reads and writes.
// *db.DB satisfies it.
type Store interface {
	AlertHistory
	AlertSink
	ListActiveRules(ctx context.Context) ([]models.AlertRule, error)
	ListRecentKPIs(ctx context.Context, userID string, since time.Time) ([]models.KPIRecord, error)
	GetNotificationPreferences(ctx context.Context, userID string) (models.UserNotificationPreferences, error)
	CreateBatchLog(ctx context.Context, log models.BatchLog) error
	FinishBatchLog(ctx context.Context, log models.BatchLog) error
}
