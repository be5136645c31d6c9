package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/service/contacts"
)

type staticContacts []*domain.Contact

func (s staticContacts) ValidContacts() []*domain.Contact {
	return s
}

type fixedStatus int

func (f fixedStatus) Status(time.Time) domain.Status {
	return domain.Status{ElapsedDays: int(f)}
}

type sent struct {
	channel     domain.Channel
	destination string
	message     domain.Message
}

type recordingSender struct {
	mu      sync.Mutex
	sent    []sent
	failFor map[string]error
}

func (r *recordingSender) Send(_ context.Context, ch domain.Channel, dest string, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, sent{channel: ch, destination: dest, message: msg})

	return r.failFor[dest]
}

type recordingLocal struct {
	mu    sync.Mutex
	shown []domain.LocalNotification
}

func (r *recordingLocal) Notify(_ context.Context, n domain.LocalNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.shown = append(r.shown, n)

	return nil
}

type locationFunc func(ctx context.Context) (domain.Location, error)

func (f locationFunc) CurrentLocation(ctx context.Context) (domain.Location, error) {
	return f(ctx)
}

var errGateway = errors.New("gateway down")

func twoContacts() staticContacts {
	return staticContacts{
		{
			ID:       "a",
			Name:     "Ann",
			Phone:    "555-0100",
			Email:    "ann@example.com",
			Channels: domain.NewChannelSet(domain.ChannelEmail, domain.ChannelSMS),
		},
		{
			ID:         "b",
			Name:       "Bob",
			ChatHandle: "@bob",
			Channels:   domain.NewChannelSet(domain.ChannelChat),
		},
	}
}

// TestNotifyAll_FailureIsIsolated checks that one failing send does not stop the others.
func TestNotifyAll_FailureIsIsolated(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{failFor: map[string]error{"555-0100": errGateway}}
	local := &recordingLocal{}
	location := locationFunc(func(context.Context) (domain.Location, error) {
		return domain.Location{Latitude: 1.5, Longitude: 2.5}, nil
	})

	n := New(twoContacts(), fixedStatus(2), sender,
		WithLocationProvider(location),
		WithLocalNotifier(local),
	)

	now := time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC)
	report := n.NotifyAll(context.Background(), now)

	require.Len(t, sender.sent, 3)
	require.Len(t, report.Attempts, 3)
	require.Equal(t, 2, report.Delivered())
	require.Equal(t, 1, report.Failed())
	require.ErrorIs(t, report.Err, errGateway)
	require.True(t, report.Location.Found())
	require.Contains(t, report.Message.Body, "2 consecutive days")
	require.Contains(t, report.Message.Body, "ll=1.500000,2.500000")

	require.True(t, report.Acknowledged)
	require.Len(t, local.shown, 1)
	require.Equal(t, domain.LocalEmergencySent, local.shown[0].Kind)
	require.Equal(t, now, local.shown[0].CreatedAt)
}

// TestNotifyAll_LocationTimeout checks that a hanging provider degrades the message.
func TestNotifyAll_LocationTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	location := locationFunc(func(context.Context) (domain.Location, error) {
		<-release

		return domain.Location{}, nil
	})

	sender := &recordingSender{}
	n := New(twoContacts(), fixedStatus(3), sender,
		WithLocationProvider(location),
		WithLocationTimeout(20*time.Millisecond),
	)

	report := n.NotifyAll(context.Background(), time.Now())

	require.Equal(t, domain.LocationTimeout, report.Location.Outcome)
	require.Contains(t, report.Message.Body, domain.LocationPlaceholder)
	require.Len(t, sender.sent, 3)

	for _, s := range sender.sent {
		require.Equal(t, domain.AlertSubject, s.message.Subject)
	}
}

// TestNotifyAll_ProviderError checks the degraded path when the provider fails.
func TestNotifyAll_ProviderError(t *testing.T) {
	t.Parallel()

	location := locationFunc(func(context.Context) (domain.Location, error) {
		return domain.Location{}, errors.New("permission denied")
	})

	n := New(twoContacts(), fixedStatus(2), &recordingSender{}, WithLocationProvider(location))

	report := n.NotifyAll(context.Background(), time.Now())
	require.Equal(t, domain.LocationProviderError, report.Location.Outcome)
	require.Contains(t, report.Message.Body, domain.LocationPlaceholder)
}

// TestNotifyAll_NoContacts checks the no-op path.
func TestNotifyAll_NoContacts(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	local := &recordingLocal{}

	n := New(staticContacts{}, fixedStatus(5), sender, WithLocalNotifier(local))

	report := n.NotifyAll(context.Background(), time.Now())
	require.True(t, report.NoContacts)
	require.False(t, report.Acknowledged)
	require.Empty(t, sender.sent)
	require.Empty(t, local.shown)
}

// TestNotifyAll_FreeTierSkipsPremium checks premium gating.
func TestNotifyAll_FreeTierSkipsPremium(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	local := &recordingLocal{}

	n := New(twoContacts(), fixedStatus(2), sender,
		WithFreeTier(true),
		WithLocalNotifier(local),
	)

	report := n.NotifyAll(context.Background(), time.Now())

	require.Len(t, report.Attempts, 3)
	require.Len(t, sender.sent, 2)
	require.NoError(t, report.Err)

	for _, s := range sender.sent {
		require.False(t, s.channel.IsPremiumGated())
	}

	skipped := 0

	for _, a := range report.Attempts {
		if a.Skipped {
			skipped++

			require.ErrorIs(t, a.Err, ErrPremiumChannel)
			require.Equal(t, domain.ChannelSMS, a.Channel)
		}
	}

	require.Equal(t, 1, skipped)
	require.Len(t, local.shown, 1)
}

// TestNotifyAll_UnsatisfiableChannelIsNotAttempted checks that only reachable channels are used.
func TestNotifyAll_UnsatisfiableChannelIsNotAttempted(t *testing.T) {
	t.Parallel()

	contacts := staticContacts{{
		ID:       "c",
		Name:     "Cat",
		Email:    "cat@example.com",
		Channels: domain.NewChannelSet(domain.ChannelEmail),
	}}

	sender := &recordingSender{}
	report := New(contacts, fixedStatus(2), sender).NotifyAll(context.Background(), time.Now())

	require.Len(t, sender.sent, 1)
	require.Equal(t, domain.ChannelEmail, sender.sent[0].channel)
	require.Equal(t, "cat@example.com", sender.sent[0].destination)
	require.Equal(t, domain.LocationUnavailable, report.Location.Outcome)
}

// TestNotifyAll_PhoneOnlyContact checks that a contact added with just a phone
// number is texted, and shows up as skipped on the free tier.
func TestNotifyAll_PhoneOnlyContact(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registry := contacts.New(nil)

	candidate := &domain.Contact{Name: "Dan", Phone: "555-123-4567"}
	candidate.Channels = domain.DefaultChannels(candidate)

	result, err := registry.Add(ctx, candidate)
	require.NoError(t, err)
	require.Equal(t, contacts.AddSuccess, result.Outcome)

	sender := &recordingSender{}
	report := New(registry, fixedStatus(2), sender).NotifyAll(ctx, time.Now())

	require.False(t, report.NoContacts)
	require.Len(t, sender.sent, 1)
	require.Equal(t, domain.ChannelSMS, sender.sent[0].channel)
	require.Equal(t, "555-123-4567", sender.sent[0].destination)
	require.Equal(t, 1, report.Delivered())

	sender = &recordingSender{}
	report = New(registry, fixedStatus(2), sender, WithFreeTier(true)).NotifyAll(ctx, time.Now())

	require.Empty(t, sender.sent)
	require.Len(t, report.Attempts, 1)
	require.True(t, report.Attempts[0].Skipped)
	require.ErrorIs(t, report.Attempts[0].Err, ErrPremiumChannel)
	require.Equal(t, "Dan", report.Attempts[0].ContactName)
}
