package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

func fanoutFixture() (models.AlertRule, models.AlertInstance, models.UserNotificationPreferences) {
	rule := models.AlertRule{
		ID:                   "rule-1",
		UserID:               "user-1",
		RuleName:             "Occupancy Floor",
		NotificationChannels: []string{"dashboard", "email", "sms"},
	}
	inst := models.AlertInstance{
		ID:           "alert-1",
		UserID:       "user-1",
		AlertLevel:   models.LevelRed,
		AlertMessage: "Critical: Occupancy Floor triggered for Oak Ridge. Occupancy Rate: 80",
	}
	prefs := models.UserNotificationPreferences{
		UserID:       "user-1",
		EmailEnabled: true,
		EmailAddress: "owner@example.com",
		SMSEnabled:   true,
		PhoneNumber:  "+15551234567",
	}
	return rule, inst, prefs
}

func TestFanOutAllChannels(t *testing.T) {
	rule, inst, prefs := fanoutFixture()

	jobs := FanOut(rule, inst, prefs, 3)
	require.Len(t, jobs, 3)

	byType := make(map[models.NotificationType]models.NotificationJob)
	for _, j := range jobs {
		byType[j.NotificationType] = j
		assert.Equal(t, models.JobPending, j.Status)
		assert.Equal(t, "alert-1", j.AlertInstanceID)
		assert.Equal(t, models.PriorityCritical, j.Priority)
		assert.Equal(t, 3, j.MaxRetries)
		assert.Zero(t, j.RetryCount)
		assert.NotEmpty(t, j.ID)
	}

	assert.Equal(t, "user-1", byType[models.ChannelDashboard].Recipient)
	assert.Empty(t, byType[models.ChannelDashboard].Subject)

	assert.Equal(t, "owner@example.com", byType[models.ChannelEmail].Recipient)
	assert.Equal(t, "Red Flag Alert: Occupancy Floor", byType[models.ChannelEmail].Subject)

	assert.Equal(t, "+15551234567", byType[models.ChannelSMS].Recipient)
}

func TestFanOutYellowUsesNormalPriority(t *testing.T) {
	rule, inst, prefs := fanoutFixture()
	inst.AlertLevel = models.LevelYellow

	jobs := FanOut(rule, inst, prefs, 3)
	require.NotEmpty(t, jobs)
	for _, j := range jobs {
		assert.Equal(t, models.PriorityNormal, j.Priority)
	}
}

func TestFanOutEmailGatedByPreferences(t *testing.T) {
	rule, inst, prefs := fanoutFixture()
	prefs.EmailEnabled = false

	jobs := FanOut(rule, inst, prefs, 3)
	for _, j := range jobs {
		assert.NotEqual(t, models.ChannelEmail, j.NotificationType)
	}
	assert.Len(t, jobs, 2)

	// Enabled but no address is also gated off.
	prefs.EmailEnabled = true
	prefs.EmailAddress = ""
	jobs = FanOut(rule, inst, prefs, 3)
	assert.Len(t, jobs, 2)
}

func TestFanOutSMSGatedByPreferences(t *testing.T) {
	rule, inst, prefs := fanoutFixture()
	prefs.SMSEnabled = false

	jobs := FanOut(rule, inst, prefs, 3)
	for _, j := range jobs {
		assert.NotEqual(t, models.ChannelSMS, j.NotificationType)
	}
	assert.Len(t, jobs, 2)
}

func TestFanOutSMSTruncation(t *testing.T) {
	rule, inst, prefs := fanoutFixture()
	inst.AlertMessage = "Critical: " + strings.Repeat("Oak Ridge occupancy is badly down. ", 10)
	require.Greater(t, len([]rune(inst.AlertMessage)), 160)

	jobs := FanOut(rule, inst, prefs, 3)
	byType := make(map[models.NotificationType]models.NotificationJob)
	for _, j := range jobs {
		byType[j.NotificationType] = j
	}

	assert.Len(t, []rune(byType[models.ChannelSMS].Message), 160)
	assert.Equal(t, inst.AlertMessage, byType[models.ChannelEmail].Message)
	assert.Equal(t, inst.AlertMessage, byType[models.ChannelDashboard].Message)
}

func TestFanOutIgnoresUnknownChannelTokens(t *testing.T) {
	rule, inst, prefs := fanoutFixture()
	rule.NotificationChannels = []string{"dashboard", "carrier_pigeon", "slack"}

	jobs := FanOut(rule, inst, prefs, 3)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.ChannelDashboard, jobs[0].NotificationType)
}

func TestFanOutNoChannels(t *testing.T) {
	rule, inst, prefs := fanoutFixture()
	rule.NotificationChannels = nil

	assert.Empty(t, FanOut(rule, inst, prefs, 3))
}

func TestTruncateSMSExactBoundary(t *testing.T) {
	exact := strings.Repeat("a", 160)
	assert.Equal(t, exact, TruncateSMS(exact))

	over := strings.Repeat("a", 161)
	assert.Equal(t, exact, TruncateSMS(over))
}
