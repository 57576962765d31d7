package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// InsertKPIRecord writes one normalized KPI record. The id is generated
// when not provided by the caller.
func (d *DB) InsertKPIRecord(ctx context.Context, rec models.KPIRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO extracted_kpis (
		id, user_id, property_name, kpi_type, kpi_name, value, unit,
		period_start, period_end, extraction_confidence, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := d.Pool.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.PropertyName,
		rec.KPIType,
		rec.KPIName,
		rec.Value,
		rec.Unit,
		rec.PeriodStart,
		rec.PeriodEnd,
		rec.ExtractionConfidence,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert kpi record: %w", err)
	}
	return nil
}

// ListRecentKPIs returns a user's KPI records created at or after the
// given instant, most recent first.
func (d *DB) ListRecentKPIs(ctx context.Context, userID string, since time.Time) ([]models.KPIRecord, error) {
	query := `
	SELECT id, user_id, property_name, kpi_type, kpi_name, value, unit,
	       period_start, period_end, extraction_confidence, created_at
	FROM extracted_kpis
	WHERE user_id = $1 AND created_at >= $2
	ORDER BY created_at DESC`

	rows, err := d.Pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list kpi records for user %s: %w", userID, err)
	}
	defer rows.Close()

	var records []models.KPIRecord
	for rows.Next() {
		var rec models.KPIRecord
		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.PropertyName,
			&rec.KPIType,
			&rec.KPIName,
			&rec.Value,
			&rec.Unit,
			&rec.PeriodStart,
			&rec.PeriodEnd,
			&rec.ExtractionConfidence,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan kpi record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
