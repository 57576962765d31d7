package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// GetNotificationPreferences returns the user's channel preferences.
// A user without a row gets zero-value preferences, which gates email
// and SMS off.
func (d *DB) GetNotificationPreferences(ctx context.Context, userID string) (models.UserNotificationPreferences, error) {
	query := `
	SELECT user_id, email_enabled, email_address, sms_enabled, phone_number
	FROM user_notification_preferences
	WHERE user_id = $1`

	var prefs models.UserNotificationPreferences
	err := d.Pool.QueryRow(ctx, query, userID).Scan(
		&prefs.UserID,
		&prefs.EmailEnabled,
		&prefs.EmailAddress,
		&prefs.SMSEnabled,
		&prefs.PhoneNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UserNotificationPreferences{UserID: userID}, nil
		}
		return models.UserNotificationPreferences{}, fmt.Errorf("failed to get preferences for user %s: %w", userID, err)
	}
	return prefs, nil
}
