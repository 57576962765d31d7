package models

import "time"

// KPI type categories produced by the ingestion adapters.
const (
	KPITypeLeasing     = "leasing"
	KPITypeFinancial   = "financial"
	KPITypeCollections = "collections"
	KPITypeOperations  = "operations"
	KPITypeStaffing    = "staffing"
)

// KPIRecord is one normalized measured property metric. Records are
// immutable once written; a nil Value marks a record that is never
// evaluated by the monitor.
type KPIRecord struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	PropertyName         string    `json:"property_name"`
	KPIType              string    `json:"kpi_type"`
	KPIName              string    `json:"kpi_name"`
	Value                *float64  `json:"value"`
	Unit                 string    `json:"unit"`
	PeriodStart          time.Time `json:"period_start"`
	PeriodEnd            time.Time `json:"period_end"`
	ExtractionConfidence float64   `json:"extraction_confidence"`
	CreatedAt            time.Time `json:"created_at"`
}
