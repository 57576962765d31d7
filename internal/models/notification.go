package models

import "time"

// NotificationType selects the delivery channel for a job.
type NotificationType string

const (
	ChannelDashboard NotificationType = "dashboard"
	ChannelEmail     NotificationType = "email"
	ChannelSMS       NotificationType = "sms"
)

// JobStatus is the delivery state of a notification job. Sent and failed
// are terminal.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobSent    JobStatus = "sent"
	JobFailed  JobStatus = "failed"
)

// Queue priorities. Lower number means more urgent.
const (
	PriorityCritical = 1
	PriorityNormal   = 3
)

// NotificationJob is one channel-specific delivery task derived from a
// triggered alert. Mutated by the queue processor on each attempt.
type NotificationJob struct {
	ID               string           `json:"id"`
	AlertInstanceID  string           `json:"alert_instance_id"`
	UserID           string           `json:"user_id"`
	NotificationType NotificationType `json:"notification_type"`
	Recipient        string           `json:"recipient"`
	Subject          string           `json:"subject,omitempty"`
	Message          string           `json:"message"`
	Priority         int              `json:"priority"`
	Status           JobStatus        `json:"status"`
	RetryCount       int              `json:"retry_count"`
	MaxRetries       int              `json:"max_retries"`
	ScheduledFor     time.Time        `json:"scheduled_for"`
	SentAt           *time.Time       `json:"sent_at,omitempty"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}
