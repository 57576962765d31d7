package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// CreateAlertInstance persists a triggered alert with its provenance.
func (d *DB) CreateAlertInstance(ctx context.Context, inst models.AlertInstance) error {
	triggerData, err := json.Marshal(inst.TriggerData)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	query := `
	INSERT INTO alert_instances (
		id, alert_rule_id, user_id, property_name, kpi_type, kpi_value,
		alert_level, alert_message, trigger_data, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = d.Pool.Exec(ctx, query,
		inst.ID,
		inst.AlertRuleID,
		inst.UserID,
		inst.PropertyName,
		inst.KPIType,
		inst.KPIValue,
		inst.AlertLevel,
		inst.AlertMessage,
		triggerData,
		inst.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert instance: %w", err)
	}
	return nil
}

// CountRecentAlerts counts alert instances for the same
// rule+property+level created at or after the given instant. Used by the
// dedup gate.
func (d *DB) CountRecentAlerts(ctx context.Context, ruleID, propertyName string, level models.AlertLevel, since time.Time) (int, error) {
	query := `
	SELECT COUNT(*) FROM alert_instances
	WHERE alert_rule_id = $1 AND property_name = $2 AND alert_level = $3 AND created_at >= $4`

	var n int
	if err := d.Pool.QueryRow(ctx, query, ruleID, propertyName, level, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count recent alerts: %w", err)
	}
	return n, nil
}

// ListAlertsByUserID fetches a user's alert instances with pagination,
// newest first, along with the total count.
func (d *DB) ListAlertsByUserID(ctx context.Context, userID string, limit, offset int) ([]models.AlertInstance, int, error) {
	var total int
	if err := d.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM alert_instances WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	query := `
	SELECT id, alert_rule_id, user_id, property_name, kpi_type, kpi_value,
	       alert_level, alert_message, trigger_data, created_at
	FROM alert_instances
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3`

	rows, err := d.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var list []models.AlertInstance
	for rows.Next() {
		var inst models.AlertInstance
		var triggerData []byte
		err := rows.Scan(
			&inst.ID,
			&inst.AlertRuleID,
			&inst.UserID,
			&inst.PropertyName,
			&inst.KPIType,
			&inst.KPIValue,
			&inst.AlertLevel,
			&inst.AlertMessage,
			&triggerData,
			&inst.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert instance: %w", err)
		}
		if len(triggerData) > 0 {
			if err := json.Unmarshal(triggerData, &inst.TriggerData); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal trigger data: %w", err)
			}
		}
		list = append(list, inst)
	}

	return list, total, rows.Err()
}
