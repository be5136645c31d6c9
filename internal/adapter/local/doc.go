// Package local delivers on-device notifications (reminders and the
// emergency acknowledgment) to the user: to the daemon log, over MQTT to a
// companion device, or as a Firebase Cloud Messaging push.
package local
