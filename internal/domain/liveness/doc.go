// Package liveness contains the core domain types of the monitor.
//
// It defines check-in events and their derived status, emergency contacts and
// the closed set of notification channels, escalation tiers, scheduled wakes
// and locations. Types that cross component boundaries have Clone helpers so
// callers only ever see point-in-time snapshots.
package liveness
