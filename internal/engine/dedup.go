package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// FrequencyWindow maps an alert frequency to its suppression lookback.
// The second return is false for immediate, which is never suppressed.
// Unknown frequencies fall back to daily.
func FrequencyWindow(f models.AlertFrequency) (time.Duration, bool) {
	switch f {
	case models.FrequencyImmediate:
		return 0, false
	case models.FrequencyHourly:
		return time.Hour, true
	case models.FrequencyWeekly:
		return 7 * 24 * time.Hour, true
	case models.FrequencyDaily:
		return 24 * time.Hour, true
	default:
		return 24 * time.Hour, true
	}
}

// Gate is the dedup/rate-limit gate. It suppresses a new alert when an
// instance for the same rule+property+level already exists inside the
// rule's frequency window. The read-then-write is best effort: two
// concurrent batch runs can in principle both pass within the same
// instant.
type Gate struct {
	history AlertHistory
	now     func() time.Time
}

func NewGate(history AlertHistory) *Gate {
	return &Gate{history: history, now: time.Now}
}

// ShouldAlert reports whether a freshly computed severity may produce a
// new alert instance.
func (g *Gate) ShouldAlert(ctx context.Context, rule models.AlertRule, propertyName string, level models.AlertLevel) (bool, error) {
	window, limited := FrequencyWindow(rule.AlertFrequency)
	if !limited {
		return true, nil
	}

	n, err := g.history.CountRecentAlerts(ctx, rule.ID, propertyName, level, g.now().Add(-window))
	if err != nil {
		return false, fmt.Errorf("dedup check for rule %s failed: %w", rule.ID, err)
	}
	return n == 0, nil
}
