package models

import "time"

// ProcessingType distinguishes the two orchestrated batch kinds.
type ProcessingType string

const (
	ProcessingKPICheck ProcessingType = "kpi_check"
	ProcessingDispatch ProcessingType = "notification_dispatch"
)

// BatchStatus is the batch state machine: running -> completed | failed.
type BatchStatus string

const (
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
)

// BatchLog is the audit row for one orchestrator run. Created at start,
// updated exactly once at the end.
type BatchLog struct {
	BatchID             string         `json:"batch_id"`
	ProcessingType      ProcessingType `json:"processing_type"`
	Status              BatchStatus    `json:"status"`
	PropertiesProcessed int            `json:"properties_processed"`
	AlertsTriggered     int            `json:"alerts_triggered"`
	NotificationsSent   int            `json:"notifications_sent"`
	NotificationsFailed int            `json:"notifications_failed"`
	ProcessingTimeMs    int64          `json:"processing_time_ms"`
	ErrorMessage        string         `json:"error_message,omitempty"`
	StartedAt           time.Time      `json:"started_at"`
	CompletedAt         *time.Time     `json:"completed_at,omitempty"`
}
