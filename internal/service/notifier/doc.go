// Package notifier fans an emergency alert out to every reachable contact.
//
// The fan-out works on a snapshot of the registry, waits for the device
// location only up to a timeout, isolates each (contact, channel) send, and
// always finishes with a local acknowledgment.
package notifier
