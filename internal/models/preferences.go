package models

// UserNotificationPreferences gates the email and SMS channels at
// fan-out time. Owned by the surrounding application; read-only here.
type UserNotificationPreferences struct {
	UserID       string `json:"user_id"`
	EmailEnabled bool   `json:"email_enabled"`
	EmailAddress string `json:"email_address"`
	SMSEnabled   bool   `json:"sms_enabled"`
	PhoneNumber  string `json:"phone_number"`
}
