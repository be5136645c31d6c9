package liveness

import "time"

// LocalKind identifies an on-device notification.
type LocalKind string

const (
	// LocalReminder asks the user to check in.
	LocalReminder LocalKind = "missed_check_in"
	// LocalEmergencySent tells the user their contacts were alerted.
	LocalEmergencySent LocalKind = "emergency_alert_sent"
)

// LocalNotification is a message shown on the user's own device.
type LocalNotification struct {
	ID        string    `json:"id"`
	Kind      LocalKind `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReminder builds the missed check-in reminder.
func NewReminder(id string, now time.Time) LocalNotification {
	return LocalNotification{
		ID:        id,
		Kind:      LocalReminder,
		Title:     "Check In Required!",
		Body:      "You haven't checked in today. Please open the app and confirm you're still alive.",
		CreatedAt: now,
	}
}

// NewEmergencySent builds the acknowledgment sent after contacts were alerted.
func NewEmergencySent(id string, now time.Time) LocalNotification {
	return LocalNotification{
		ID:        id,
		Kind:      LocalEmergencySent,
		Title:     "Emergency Alert Sent",
		Body:      "Your emergency contacts have been notified with your location.",
		CreatedAt: now,
	}
}
