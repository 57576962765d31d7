package db

import (
	"context"
	"fmt"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// ListActiveRules returns every alert rule with is_active = true.
func (d *DB) ListActiveRules(ctx context.Context) ([]models.AlertRule, error) {
	query := `
	SELECT id, user_id, rule_name, kpi_type, properties,
	       green_min, green_max, yellow_min, yellow_max, red_min, red_max,
	       alert_frequency, notification_channels, is_active, created_at
	FROM alert_rules
	WHERE is_active = true`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}
	defer rows.Close()

	var rules []models.AlertRule
	for rows.Next() {
		var r models.AlertRule
		err := rows.Scan(
			&r.ID,
			&r.UserID,
			&r.RuleName,
			&r.KPIType,
			&r.Properties,
			&r.Thresholds.GreenMin,
			&r.Thresholds.GreenMax,
			&r.Thresholds.YellowMin,
			&r.Thresholds.YellowMax,
			&r.Thresholds.RedMin,
			&r.Thresholds.RedMax,
			&r.AlertFrequency,
			&r.NotificationChannels,
			&r.IsActive,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert rule: %w", err)
		}
		rules = append(rules, r)
	}

	return rules, rows.Err()
}
