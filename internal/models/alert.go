package models

import "time"

// TriggerData captures the provenance of a triggered alert: the source
// KPI, the batch it was evaluated in, and the threshold values active at
// evaluation time (thresholds may change later).
type TriggerData struct {
	KPIID      string         `json:"kpi_id"`
	KPIName    string         `json:"kpi_name"`
	Confidence float64        `json:"confidence"`
	BatchID    string         `json:"batch_id"`
	Thresholds ThresholdBands `json:"thresholds"`
}

// AlertInstance is one triggered alert. Append-only audit trail: never
// mutated after creation. Green evaluations never produce an instance.
type AlertInstance struct {
	ID           string      `json:"id"`
	AlertRuleID  string      `json:"alert_rule_id"`
	UserID       string      `json:"user_id"`
	PropertyName string      `json:"property_name"`
	KPIType      string      `json:"kpi_type"`
	KPIValue     *float64    `json:"kpi_value"`
	AlertLevel   AlertLevel  `json:"alert_level"`
	AlertMessage string      `json:"alert_message"`
	TriggerData  TriggerData `json:"trigger_data"`
	CreatedAt    time.Time   `json:"created_at"`
}
