package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/logger"
)

const (
	// DefaultLocationTimeout bounds the wait for a location fix.
	DefaultLocationTimeout = 10 * time.Second
	// DefaultSendTimeout bounds a single channel send.
	DefaultSendTimeout = 30 * time.Second
	// DefaultConcurrency is the number of sends in flight at once.
	DefaultConcurrency = 4
)

// ErrPremiumChannel marks attempts skipped because the channel needs the paid tier.
var ErrPremiumChannel = errors.New("channel requires premium tier")

// ContactSource provides the contacts to alert.
type ContactSource interface {
	ValidContacts() []*domain.Contact
}

// StatusSource provides the staleness reported in the alert.
type StatusSource interface {
	Status(now time.Time) domain.Status
}

// LocationProvider returns the current device location. Implementations should
// honor ctx, but the notifier stops waiting at the deadline either way.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) (domain.Location, error)
}

// ChannelSender delivers a message over one channel. It does not retry.
type ChannelSender interface {
	Send(ctx context.Context, channel domain.Channel, destination string, message domain.Message) error
}

// LocalNotifier shows a notification on the user's own device.
type LocalNotifier interface {
	Notify(ctx context.Context, notification domain.LocalNotification) error
}

// Attempt records one (contact, channel) delivery.
type Attempt struct {
	ContactID   string
	ContactName string
	Channel     domain.Channel
	Destination string
	// Skipped is set when the attempt was not made, Err says why.
	Skipped bool
	Err     error
}

// Report summarizes a NotifyAll run.
type Report struct {
	At          time.Time
	ElapsedDays int
	Location    domain.LocationResult
	Message     domain.Message
	Attempts    []Attempt
	// NoContacts is set when there was nobody to alert.
	NoContacts bool
	// Acknowledged is set once the local acknowledgment was emitted.
	Acknowledged bool
	// Err combines the errors of every failed attempt.
	Err error
}

// Delivered counts successful sends.
func (r *Report) Delivered() int {
	count := 0

	for _, a := range r.Attempts {
		if !a.Skipped && a.Err == nil {
			count++
		}
	}

	return count
}

// Failed counts sends that were attempted and failed.
func (r *Report) Failed() int {
	count := 0

	for _, a := range r.Attempts {
		if !a.Skipped && a.Err != nil {
			count++
		}
	}

	return count
}

// Notifier alerts emergency contacts.
type Notifier struct {
	contacts        ContactSource
	status          StatusSource
	sender          ChannelSender
	location        LocationProvider
	local           LocalNotifier
	locationTimeout time.Duration
	sendTimeout     time.Duration
	concurrency     int
	freeTier        bool
}

// Option configures the notifier.
type Option func(*Notifier)

// WithLocationProvider sets where the device location comes from.
func WithLocationProvider(p LocationProvider) Option {
	return func(n *Notifier) {
		n.location = p
	}
}

// WithLocalNotifier sets where the acknowledgment is shown.
func WithLocalNotifier(l LocalNotifier) Option {
	return func(n *Notifier) {
		n.local = l
	}
}

// WithLocationTimeout overrides DefaultLocationTimeout.
func WithLocationTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.locationTimeout = d
		}
	}
}

// WithSendTimeout overrides DefaultSendTimeout.
func WithSendTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.sendTimeout = d
		}
	}
}

// WithConcurrency overrides DefaultConcurrency.
func WithConcurrency(limit int) Option {
	return func(n *Notifier) {
		if limit > 0 {
			n.concurrency = limit
		}
	}
}

// WithFreeTier skips premium-gated channels.
func WithFreeTier(free bool) Option {
	return func(n *Notifier) {
		n.freeTier = free
	}
}

// New creates a notifier.
func New(contacts ContactSource, status StatusSource, sender ChannelSender, opts ...Option) *Notifier {
	n := &Notifier{
		contacts:        contacts,
		status:          status,
		sender:          sender,
		locationTimeout: DefaultLocationTimeout,
		sendTimeout:     DefaultSendTimeout,
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// NotifyAll alerts every valid contact over its reachable channels.
// It never fails as a whole: individual failures are recorded in the report.
func (n *Notifier) NotifyAll(ctx context.Context, now time.Time) Report {
	ctx = logger.WithName(ctx, "notifier")

	report := Report{At: now}

	contacts := n.contacts.ValidContacts()
	if len(contacts) == 0 {
		logger.Warn(ctx, "No emergency contacts configured, nothing to notify")

		report.NoContacts = true

		return report
	}

	report.ElapsedDays = n.status.Status(now).ElapsedDays
	report.Location = n.locate(ctx)
	report.Message = domain.NewAlertMessage(report.ElapsedDays, report.Location)
	report.Attempts = n.plan(contacts)

	n.send(ctx, report.Message, report.Attempts)

	for _, a := range report.Attempts {
		if !a.Skipped && a.Err != nil {
			report.Err = multierr.Append(report.Err, a.Err)
		}
	}

	logger.InfoKV(ctx, "Emergency alert fan-out finished",
		"contacts", len(contacts),
		"attempts", len(report.Attempts),
		"delivered", report.Delivered(),
		"failed", report.Failed(),
		"location", report.Location.Outcome.String(),
	)

	n.acknowledge(ctx, now)

	report.Acknowledged = true

	return report
}

// locate waits for a fix at most locationTimeout. The provider call keeps
// running in the background if it ignores cancellation.
func (n *Notifier) locate(ctx context.Context) domain.LocationResult {
	if n.location == nil {
		return domain.LocationResult{Outcome: domain.LocationUnavailable}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, n.locationTimeout)
	defer cancel()

	type fix struct {
		location domain.Location
		err      error
	}

	done := make(chan fix, 1)

	go func() {
		location, err := n.location.CurrentLocation(lookupCtx)
		done <- fix{location: location, err: err}
	}()

	select {
	case <-lookupCtx.Done():
		logger.WarnKV(ctx, "Location lookup timed out", "timeout", n.locationTimeout)

		return domain.LocationResult{Outcome: domain.LocationTimeout, Err: lookupCtx.Err()}
	case result := <-done:
		switch {
		case result.err == nil:
			return domain.LocationResult{Outcome: domain.LocationFound, Location: result.location}
		case errors.Is(result.err, context.DeadlineExceeded):
			return domain.LocationResult{Outcome: domain.LocationTimeout, Err: result.err}
		default:
			logger.WarnKV(ctx, "Location provider failed", "error", result.err)

			return domain.LocationResult{Outcome: domain.LocationProviderError, Err: result.err}
		}
	}
}

// plan lists one attempt per contact and reachable channel.
func (n *Notifier) plan(contacts []*domain.Contact) []Attempt {
	var attempts []Attempt

	for _, c := range contacts {
		for _, ch := range c.ReachableChannels() {
			attempt := Attempt{
				ContactID:   c.ID,
				ContactName: c.Name,
				Channel:     ch,
				Destination: ch.Destination(c),
			}

			if n.freeTier && ch.IsPremiumGated() {
				attempt.Skipped = true
				attempt.Err = ErrPremiumChannel
			}

			attempts = append(attempts, attempt)
		}
	}

	return attempts
}

// send runs every planned attempt. A failing attempt never cancels its siblings.
func (n *Notifier) send(ctx context.Context, message domain.Message, attempts []Attempt) {
	var group errgroup.Group

	group.SetLimit(n.concurrency)

	for i := range attempts {
		if attempts[i].Skipped {
			continue
		}

		group.Go(func() error {
			attempt := &attempts[i]

			sendCtx, cancel := context.WithTimeout(ctx, n.sendTimeout)
			defer cancel()

			attempt.Err = n.sender.Send(sendCtx, attempt.Channel, attempt.Destination, message)
			if attempt.Err != nil {
				logger.ErrorKV(ctx, "Emergency alert delivery failed",
					"contact_id", attempt.ContactID,
					"channel", attempt.Channel.String(),
					"error", attempt.Err,
				)
			}

			return nil
		})
	}

	_ = group.Wait()
}

func (n *Notifier) acknowledge(ctx context.Context, now time.Time) {
	if n.local == nil {
		return
	}

	if err := n.local.Notify(ctx, domain.NewEmergencySent(uuid.NewString(), now)); err != nil {
		logger.ErrorKV(ctx, "Failed to show emergency acknowledgment", "error", err)
	}
}
