// Package escalation turns check-ins and timed wakes into reminders and
// emergency alerts.
//
// A check-in arms one reminder wake a day out and one emergency wake two days
// out. Each wake re-arms itself before evaluating the ledger, so a missed
// check-in keeps escalating until the user checks in again.
package escalation
