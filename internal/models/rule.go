package models

import "time"

// AlertLevel is the three-step severity derived from threshold evaluation.
type AlertLevel string

const (
	LevelGreen  AlertLevel = "green"
	LevelYellow AlertLevel = "yellow"
	LevelRed    AlertLevel = "red"
)

// AlertFrequency controls how often repeat alerts for the same
// rule+property+level are allowed through the dedup gate.
type AlertFrequency string

const (
	FrequencyImmediate AlertFrequency = "immediate"
	FrequencyHourly    AlertFrequency = "hourly"
	FrequencyDaily     AlertFrequency = "daily"
	FrequencyWeekly    AlertFrequency = "weekly"
)

// ThresholdBands holds the six optional band boundaries of a rule.
// A nil boundary means that band edge is not configured and can never
// trigger.
type ThresholdBands struct {
	GreenMin  *float64 `json:"green_min,omitempty"`
	GreenMax  *float64 `json:"green_max,omitempty"`
	YellowMin *float64 `json:"yellow_min,omitempty"`
	YellowMax *float64 `json:"yellow_max,omitempty"`
	RedMin    *float64 `json:"red_min,omitempty"`
	RedMax    *float64 `json:"red_max,omitempty"`
}

// AlertRule is the per-user alerting configuration. Read-only from the
// engine's perspective; soft-disabled via IsActive.
type AlertRule struct {
	ID                   string         `json:"id"`
	UserID               string         `json:"user_id"`
	RuleName             string         `json:"rule_name"`
	KPIType              string         `json:"kpi_type"`
	Properties           []string       `json:"properties"`
	Thresholds           ThresholdBands `json:"thresholds"`
	AlertFrequency       AlertFrequency `json:"alert_frequency"`
	NotificationChannels []string       `json:"notification_channels"`
	IsActive             bool           `json:"is_active"`
	CreatedAt            time.Time      `json:"created_at"`
}

// AppliesTo reports whether the rule's property scope covers the given
// property name. An empty scope means all properties.
func (r AlertRule) AppliesTo(propertyName string) bool {
	if len(r.Properties) == 0 {
		return true
	}
	for _, p := range r.Properties {
		if p == propertyName {
			return true
		}
	}
	return false
}
