package models

import "time"

// Document processing states.
const (
	DocumentPending    = "pending"
	DocumentProcessing = "processing"
	DocumentCompleted  = "completed"
	DocumentFailed     = "failed"
)

// Document is a stored source file awaiting KPI extraction.
type Document struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Filename     string     `json:"filename"`
	StoragePath  string     `json:"storage_path"`
	Status       string     `json:"status"`
	Category     string     `json:"category,omitempty"`
	Confidence   float64    `json:"confidence"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// PM integration sync states.
const (
	IntegrationActive  = "active"
	IntegrationSyncing = "syncing"
	IntegrationError   = "error"
)

// PMIntegration holds the credentials and sync state for one upstream
// property-management software connection.
type PMIntegration struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Provider     string     `json:"provider"`
	BaseURL      string     `json:"base_url"`
	ClientID     string     `json:"client_id"`
	ClientSecret string     `json:"-"`
	Username     string     `json:"username"`
	Password     string     `json:"-"`
	SyncStatus   string     `json:"sync_status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}
