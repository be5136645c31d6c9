// Package client implements the alive-ctl commands on top of the gRPC client.
//
// Check-in keeps retrying until the server confirms it, so a user pressing
// "I'm alive" while the daemon restarts is never lost.
package client
