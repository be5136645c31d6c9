package liveness

import (
	"fmt"
	"time"
)

// Location is a device position fix.
type Location struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   float64   `json:"accuracy,omitempty"`
	CapturedAt time.Time `json:"captured_at,omitzero"`
}

// MapsURL returns a link that opens the location in a maps app.
func (l Location) MapsURL() string {
	return fmt.Sprintf("https://maps.apple.com/?ll=%.6f,%.6f", l.Latitude, l.Longitude)
}

// LocationOutcome classifies a location lookup.
type LocationOutcome int

const (
	// LocationFound means a fix was obtained.
	LocationFound LocationOutcome = iota
	// LocationTimeout means the provider did not answer in time.
	LocationTimeout
	// LocationProviderError means the provider failed.
	LocationProviderError
	// LocationUnavailable means no provider is configured.
	LocationUnavailable
)

// String returns the outcome name.
func (o LocationOutcome) String() string {
	switch o {
	case LocationFound:
		return "found"
	case LocationTimeout:
		return "timeout"
	case LocationProviderError:
		return "provider_error"
	default:
		return "unavailable"
	}
}

// LocationResult is the outcome of a bounded location lookup.
type LocationResult struct {
	Outcome  LocationOutcome
	Location Location
	Err      error
}

// Found reports whether a fix is available.
func (r LocationResult) Found() bool {
	return r.Outcome == LocationFound
}
