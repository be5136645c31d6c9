// Package status exposes the monitor state over plain HTTP for dashboards and
// health probes, next to the gRPC API.
package status
