package engine

import "github.com/Opsightlive/opsight-live-sub001/internal/models"

// EvaluateThresholds maps a KPI value to a severity level. Red bands are
// checked before yellow, first match wins. Comparisons are strict: a
// value exactly at a boundary does not trigger that band. An unset
// boundary never triggers.
func EvaluateThresholds(value float64, bands models.ThresholdBands) models.AlertLevel {
	if bands.RedMin != nil && value < *bands.RedMin {
		return models.LevelRed
	}
	if bands.RedMax != nil && value > *bands.RedMax {
		return models.LevelRed
	}
	if bands.YellowMin != nil && value < *bands.YellowMin {
		return models.LevelYellow
	}
	if bands.YellowMax != nil && value > *bands.YellowMax {
		return models.LevelYellow
	}
	return models.LevelGreen
}
