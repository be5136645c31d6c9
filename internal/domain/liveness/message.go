package liveness

import (
	"fmt"
	"strings"
)

// AlertSubject is the subject line used by channels that support one.
const AlertSubject = "URGENT: Check-in Alert"

// LocationPlaceholder replaces the location line when no fix is available.
const LocationPlaceholder = "Location unavailable"

// Message is an outbound alert.
type Message struct {
	Subject string
	Body    string
}

// NewAlertMessage builds the emergency alert sent to every contact.
func NewAlertMessage(elapsedDays int, location LocationResult) Message {
	var b strings.Builder

	b.WriteString("URGENT: This is an automated message from the Still Alive check-in monitor.\n\n")

	switch {
	case elapsedDays == NeverCheckedIn:
		b.WriteString("The user has not checked in at all.\n\n")
	case elapsedDays == 1:
		b.WriteString("The user has not checked in for 1 day.\n\n")
	default:
		fmt.Fprintf(&b, "The user has not checked in for %d consecutive days.\n\n", elapsedDays)
	}

	if location.Found() {
		fmt.Fprintf(&b, "Last known location: %s\n\n", location.Location.MapsURL())
	} else {
		b.WriteString(LocationPlaceholder + "\n\n")
	}

	b.WriteString("Please try to contact them or check on their wellbeing.")

	return Message{
		Subject: AlertSubject,
		Body:    b.String(),
	}
}
