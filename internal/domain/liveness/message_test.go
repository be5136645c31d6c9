package liveness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNewAlertMessage checks the preamble, day count and location line.
func TestNewAlertMessage(t *testing.T) {
	t.Parallel()

	found := LocationResult{Outcome: LocationFound, Location: Location{Latitude: 52.52, Longitude: 13.405}}

	msg := NewAlertMessage(2, found)
	require.Equal(t, AlertSubject, msg.Subject)
	require.Contains(t, msg.Body, "URGENT")
	require.Contains(t, msg.Body, "2 consecutive days")
	require.Contains(t, msg.Body, "https://maps.apple.com/?ll=52.520000,13.405000")
	require.NotContains(t, msg.Body, LocationPlaceholder)

	msg = NewAlertMessage(3, LocationResult{Outcome: LocationTimeout})
	require.Contains(t, msg.Body, "3 consecutive days")
	require.Contains(t, msg.Body, LocationPlaceholder)

	msg = NewAlertMessage(NeverCheckedIn, LocationResult{Outcome: LocationUnavailable})
	require.Contains(t, msg.Body, "not checked in at all")
}
