// Package trigger drives the escalation scheduler from a polling ticker.
package trigger
