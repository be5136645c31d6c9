package liveness

import "time"

// Actor identifies who issued a check-in, for the audit log.
type Actor struct {
	Hostname string
	Username string
}

// String formats the actor as username@hostname.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// Overview is the monitor state shown to the user.
type Overview struct {
	Status Status
	// Phase is the escalation phase name.
	Phase string
	// NextReminder and NextEmergency are the armed wakes, zero when idle.
	NextReminder   time.Time
	NextEmergency  time.Time
	Contacts       int
	RemainingSlots int
}
