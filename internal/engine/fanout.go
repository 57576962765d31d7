package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// smsMaxLength is the hard single-segment SMS limit. Longer messages are
// cut, not split across segments.
const smsMaxLength = 160

// TruncateSMS cuts a message to the single-segment SMS limit.
func TruncateSMS(message string) string {
	runes := []rune(message)
	if len(runes) <= smsMaxLength {
		return message
	}
	return string(runes[:smsMaxLength])
}

// FanOut expands one alert instance into its channel-specific jobs.
// Email and SMS are gated by the user's preferences; dashboard has no
// prerequisite. Unknown channel tokens are skipped.
func FanOut(rule models.AlertRule, inst models.AlertInstance, prefs models.UserNotificationPreferences, maxRetries int) []models.NotificationJob {
	priority := models.PriorityNormal
	if inst.AlertLevel == models.LevelRed {
		priority = models.PriorityCritical
	}
	now := time.Now()

	base := models.NotificationJob{
		AlertInstanceID: inst.ID,
		UserID:          inst.UserID,
		Priority:        priority,
		Status:          models.JobPending,
		MaxRetries:      maxRetries,
		ScheduledFor:    now,
		CreatedAt:       now,
	}

	var jobs []models.NotificationJob
	for _, ch := range rule.NotificationChannels {
		job := base
		job.ID = uuid.New().String()

		switch models.NotificationType(ch) {
		case models.ChannelDashboard:
			job.NotificationType = models.ChannelDashboard
			job.Recipient = inst.UserID
			job.Message = inst.AlertMessage
		case models.ChannelEmail:
			if !prefs.EmailEnabled || prefs.EmailAddress == "" {
				continue
			}
			job.NotificationType = models.ChannelEmail
			job.Recipient = prefs.EmailAddress
			job.Subject = "Red Flag Alert: " + rule.RuleName
			job.Message = inst.AlertMessage
		case models.ChannelSMS:
			if !prefs.SMSEnabled || prefs.PhoneNumber == "" {
				continue
			}
			job.NotificationType = models.ChannelSMS
			job.Recipient = prefs.PhoneNumber
			job.Message = TruncateSMS(inst.AlertMessage)
		default:
			// Unknown channel token, nothing to deliver yet.
			continue
		}

		jobs = append(jobs, job)
	}

	return jobs
}
