package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// GetIntegration fetches one PM-software integration by id.
func (d *DB) GetIntegration(ctx context.Context, id string) (models.PMIntegration, error) {
	query := `
	SELECT id, user_id, provider, base_url, client_id, client_secret, username,
	       password, sync_status, error_message, last_synced_at
	FROM pm_integrations
	WHERE id = $1`

	var integ models.PMIntegration
	var errMsg *string
	err := d.Pool.QueryRow(ctx, query, id).Scan(
		&integ.ID,
		&integ.UserID,
		&integ.Provider,
		&integ.BaseURL,
		&integ.ClientID,
		&integ.ClientSecret,
		&integ.Username,
		&integ.Password,
		&integ.SyncStatus,
		&errMsg,
		&integ.LastSyncedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PMIntegration{}, fmt.Errorf("integration %s not found", id)
		}
		return models.PMIntegration{}, fmt.Errorf("failed to get integration %s: %w", id, err)
	}
	if errMsg != nil {
		integ.ErrorMessage = *errMsg
	}
	return integ, nil
}

// SetIntegrationSyncing marks a sync run as in progress.
func (d *DB) SetIntegrationSyncing(ctx context.Context, id string) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE pm_integrations SET sync_status = 'syncing' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark integration %s syncing: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no integration updated for id %s", id)
	}
	return nil
}

// CompleteIntegrationSync records a successful sync run.
func (d *DB) CompleteIntegrationSync(ctx context.Context, id string) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE pm_integrations
		 SET sync_status = 'active', last_synced_at = $1, error_message = NULL
		 WHERE id = $2`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to complete sync for integration %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no integration updated for id %s", id)
	}
	return nil
}

// FailIntegrationSync records a failed sync run.
func (d *DB) FailIntegrationSync(ctx context.Context, id, errMsg string) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE pm_integrations SET sync_status = 'error', error_message = $1 WHERE id = $2`,
		errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to record sync error for integration %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no integration updated for id %s", id)
	}
	return nil
}
