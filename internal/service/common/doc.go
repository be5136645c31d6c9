// Package common holds helpers shared by alive-ctl commands and tests.
//
// It provides a gRPC client wrapper with timeouts that decodes responses into
// domain types, and detects the current system actor (hostname/username) for
// the check-in audit log.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
