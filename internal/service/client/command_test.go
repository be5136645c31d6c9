package client

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
)

// TestPrintOverview checks the status table for both ledger states.
func TestPrintOverview(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, printOverview(&buf, domain.Overview{
		Status:         domain.Status{ElapsedDays: domain.NeverCheckedIn, Tier: domain.TierCritical},
		Phase:          "idle",
		RemainingSlots: 3,
	}))
	require.Contains(t, buf.String(), "critical")
	require.Contains(t, buf.String(), "never")
	require.Contains(t, buf.String(), "0 (3 slots left)")

	buf.Reset()

	event := domain.CheckInEvent{ID: "c", Timestamp: time.Now().Add(-30 * time.Hour)}
	require.NoError(t, printOverview(&buf, domain.Overview{
		Status: domain.Status{LastCheckIn: &event, ElapsedDays: 1, Tier: domain.TierOverdue},
		Phase:  "emergency_pending",
	}))
	require.Contains(t, buf.String(), "overdue")
	require.Contains(t, buf.String(), "emergency_pending")
	require.NotContains(t, buf.String(), "never")
}

// TestPrintContacts checks positions and placeholders.
func TestPrintContacts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, printContacts(&buf, nil))
	require.Equal(t, "No emergency contacts.\n", buf.String())

	buf.Reset()

	require.NoError(t, printContacts(&buf, []*domain.Contact{
		{Name: "Ann", Email: "ann@example.com", Channels: domain.NewChannelSet(domain.ChannelEmail)},
		{Name: "Bob", Phone: "555", Channels: domain.NewChannelSet(domain.ChannelSMS, domain.ChannelWhatsApp)},
	}))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	require.Contains(t, string(lines[1]), "ann@example.com")
	require.Contains(t, string(lines[2]), "sms,whatsapp")
}
