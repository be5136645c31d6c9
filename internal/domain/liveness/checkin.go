package liveness

import (
	"math"
	"time"
)

const (
	// MaxCheckIns is the number of check-ins kept in the ledger.
	MaxCheckIns = 30

	// ReminderWindow is the staleness after which a reminder is due.
	ReminderWindow = 24 * time.Hour

	// EmergencyWindow is the staleness after which contacts are alerted.
	EmergencyWindow = 48 * time.Hour

	// ReminderDays and EmergencyDays are the windows expressed in whole days.
	ReminderDays  = 1
	EmergencyDays = 2

	// NeverCheckedIn is the ElapsedDays sentinel for an empty ledger.
	NeverCheckedIn = math.MaxInt
)

// CheckInEvent is a single "I am alive" signal.
type CheckInEvent struct {
	// ID uniquely identifies the check-in.
	ID string `json:"id"`
	// Timestamp is when the check-in was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// Status summarizes the ledger relative to a point in time.
type Status struct {
	// LastCheckIn is the most recent check-in, nil if there is none.
	LastCheckIn *CheckInEvent
	// ElapsedDays is the number of whole calendar days since LastCheckIn,
	// or NeverCheckedIn.
	ElapsedDays int
	// HasCheckedInToday reports whether LastCheckIn falls on today's date.
	HasCheckedInToday bool
	// Tier is the escalation tier derived from the fields above.
	Tier Tier
}

// Tier is the escalation level derived from staleness.
type Tier int

const (
	// TierFresh means the user checked in today.
	TierFresh Tier = iota
	// TierOverdue means today's check-in is missing but contacts are not alerted yet.
	TierOverdue
	// TierCritical means the emergency window has elapsed, or there never was a check-in.
	TierCritical
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierFresh:
		return "fresh"
	case TierOverdue:
		return "overdue"
	case TierCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseTier is the inverse of Tier.String.
func ParseTier(s string) (Tier, bool) {
	for _, t := range []Tier{TierFresh, TierOverdue, TierCritical} {
		if t.String() == s {
			return t, true
		}
	}

	return 0, false
}

// ClassifyTier derives the tier from the time elapsed since the last check-in.
// A check-in from an earlier calendar day is Overdue even when less than
// ReminderWindow has passed.
func ClassifyTier(elapsed time.Duration, hasLast, checkedInToday bool) Tier {
	switch {
	case !hasLast || elapsed >= EmergencyWindow:
		return TierCritical
	case elapsed >= ReminderWindow:
		return TierOverdue
	case checkedInToday:
		return TierFresh
	default:
		return TierOverdue
	}
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()

	return ay == by && am == bm && ad == bd
}

// ElapsedDays counts whole days from since to now in loc. A day is counted
// once the same wall-clock time is reached on a later date, so DST shifts do
// not skew the result. Clock skew (now before since) yields 0.
func ElapsedDays(since, now time.Time, loc *time.Location) int {
	if !now.After(since) {
		return 0
	}

	from := since.In(loc)

	days := int(now.Sub(since) / (24 * time.Hour))
	for days > 0 && from.AddDate(0, 0, days).After(now) {
		days--
	}

	for !from.AddDate(0, 0, days+1).After(now) {
		days++
	}

	return days
}
