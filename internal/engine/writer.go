package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Opsightlive/opsight-live-sub001/internal/logging"
	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

var valuePrinter = message.NewPrinter(language.English)

// FormatKPIValue renders a KPI value with locale grouping, or "N/A" for
// a missing value.
func FormatKPIValue(v *float64) string {
	if v == nil {
		return "N/A"
	}
	if *v == math.Trunc(*v) {
		return valuePrinter.Sprintf("%d", int64(*v))
	}
	return valuePrinter.Sprintf("%.2f", *v)
}

// BuildAlertMessage produces the human-readable alert text:
// "{Critical|Warning}: {rule} triggered for {property}. {kpi}: {value}".
func BuildAlertMessage(level models.AlertLevel, ruleName, propertyName, kpiName string, value *float64) string {
	severity := "Warning"
	if level == models.LevelRed {
		severity = "Critical"
	}
	if propertyName == "" {
		propertyName = "Unknown Property"
	}
	return fmt.Sprintf("%s: %s triggered for %s. %s: %s",
		severity, ruleName, propertyName, kpiName, FormatKPIValue(value))
}

// Writer persists approved alert instances and immediately fans out
// their notification jobs. A fan-out failure after a successful alert
// write is logged, not rolled back.
type Writer struct {
	sink       AlertSink
	logger     *logging.Logger
	maxRetries int
}

func NewWriter(sink AlertSink, logger *logging.Logger, maxRetries int) *Writer {
	return &Writer{sink: sink, logger: logger, maxRetries: maxRetries}
}

// Write creates the alert instance for a breached rule and enqueues its
// channel jobs.
func (w *Writer) Write(ctx context.Context, rule models.AlertRule, rec models.KPIRecord, level models.AlertLevel, batchID string, prefs models.UserNotificationPreferences) (models.AlertInstance, error) {
	inst := models.AlertInstance{
		ID:           uuid.New().String(),
		AlertRuleID:  rule.ID,
		UserID:       rule.UserID,
		PropertyName: rec.PropertyName,
		KPIType:      rec.KPIType,
		KPIValue:     rec.Value,
		AlertLevel:   level,
		AlertMessage: BuildAlertMessage(level, rule.RuleName, rec.PropertyName, rec.KPIName, rec.Value),
		TriggerData: models.TriggerData{
			KPIID:      rec.ID,
			KPIName:    rec.KPIName,
			Confidence: rec.ExtractionConfidence,
			BatchID:    batchID,
			Thresholds: rule.Thresholds,
		},
		CreatedAt: time.Now(),
	}

	if err := w.sink.CreateAlertInstance(ctx, inst); err != nil {
		return models.AlertInstance{}, fmt.Errorf("failed to write alert for rule %s: %w", rule.ID, err)
	}

	jobs := FanOut(rule, inst, prefs, w.maxRetries)
	if len(jobs) > 0 {
		if err := w.sink.EnqueueNotificationJobs(ctx, jobs); err != nil {
			// The alert is already committed; notifications are lost for
			// this trigger but the audit trail stays intact.
			w.logger.Errorf("Fan-out enqueue failed for alert %s: %v", inst.ID, err)
		}
	}

	return inst, nil
}
