package liveness

import "time"

// WakeKind identifies an escalation wake.
type WakeKind int

const (
	// WakeReminder checks whether the user should be reminded.
	WakeReminder WakeKind = iota + 1
	// WakeEmergency checks whether contacts should be alerted.
	WakeEmergency
)

// WakeKinds lists every kind in firing priority order.
//
//nolint:gochecknoglobals // Closed enum.
var WakeKinds = []WakeKind{WakeReminder, WakeEmergency}

// String returns the wake kind name.
func (k WakeKind) String() string {
	switch k {
	case WakeReminder:
		return "reminder"
	case WakeEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Interval is the self-renewal period of the wake kind.
func (k WakeKind) Interval() time.Duration {
	if k == WakeEmergency {
		return EmergencyWindow
	}

	return ReminderWindow
}

// ScheduledWake is a pending evaluation point.
type ScheduledWake struct {
	// Kind is the escalation kind.
	Kind WakeKind
	// NotBefore is the earliest time the wake may fire.
	NotBefore time.Time
	// Token identifies this arming; re-arming the kind issues a new one.
	Token string
}

// Due reports whether the wake may fire at now.
func (w ScheduledWake) Due(now time.Time) bool {
	return !now.Before(w.NotBefore)
}
