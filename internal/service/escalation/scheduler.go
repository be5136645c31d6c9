package escalation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/logger"
	"github.com/oshokin/still-alive/internal/service/notifier"
)

// ErrStaleWake is reported when a wake was superseded by a newer arming.
var ErrStaleWake = errors.New("wake superseded")

// Phase is the scheduler state.
type Phase int

const (
	// PhaseIdle means nothing is armed.
	PhaseIdle Phase = iota
	// PhaseReminderPending means the user checked in and a reminder is armed.
	PhaseReminderPending
	// PhaseEmergencyPending means a reminder went out and the emergency wake is next.
	PhaseEmergencyPending
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseReminderPending:
		return "reminder_pending"
	case PhaseEmergencyPending:
		return "emergency_pending"
	default:
		return "idle"
	}
}

// StatusSource provides ledger staleness.
type StatusSource interface {
	Status(now time.Time) domain.Status
}

// EmergencyNotifier alerts the emergency contacts.
type EmergencyNotifier interface {
	NotifyAll(ctx context.Context, now time.Time) notifier.Report
}

// LocalNotifier shows a notification on the user's own device.
type LocalNotifier interface {
	Notify(ctx context.Context, notification domain.LocalNotification) error
}

// WakeResult describes what a wake did. A wake always completes.
type WakeResult struct {
	Wake domain.ScheduledWake
	// Next is the wake armed in its place. Zero when Superseded.
	Next   domain.ScheduledWake
	Status domain.Status
	// Superseded is set when the wake token was no longer current; Err is ErrStaleWake then.
	Superseded bool
	Err        error
	// ReminderSent is set when a reminder was emitted.
	ReminderSent bool
	// Alert is the notifier report when contacts were alerted.
	Alert *notifier.Report
}

// Scheduler owns the pending wakes.
type Scheduler struct {
	status   StatusSource
	notifier EmergencyNotifier
	local    LocalNotifier

	mu      sync.Mutex
	pending map[domain.WakeKind]domain.ScheduledWake
	phase   Phase
}

// New creates an idle scheduler. local may be nil.
func New(status StatusSource, alerts EmergencyNotifier, local LocalNotifier) *Scheduler {
	return &Scheduler{
		status:   status,
		notifier: alerts,
		local:    local,
		pending:  make(map[domain.WakeKind]domain.ScheduledWake, len(domain.WakeKinds)),
	}
}

// OnCheckIn cancels pending wakes and arms a fresh pair from now.
func (s *Scheduler) OnCheckIn(ctx context.Context, now time.Time) {
	s.mu.Lock()

	clear(s.pending)

	reminder := s.armLocked(domain.WakeReminder, now.Add(domain.ReminderWindow))
	emergency := s.armLocked(domain.WakeEmergency, now.Add(domain.EmergencyWindow))
	s.phase = PhaseReminderPending

	s.mu.Unlock()

	logger.DebugKV(ctx, "Escalation re-armed after check-in",
		"reminder_at", reminder.NotBefore,
		"emergency_at", emergency.NotBefore,
	)
}

// OnWake evaluates a wake of the given kind. The kind is re-armed first so the
// chain never breaks, then the ledger decides whether anything is sent.
func (s *Scheduler) OnWake(ctx context.Context, kind domain.WakeKind, now time.Time) WakeResult {
	ctx = logger.WithKV(ctx, "wake", kind.String())

	s.mu.Lock()
	fired := s.pending[kind]
	next := s.armLocked(kind, now.Add(kind.Interval()))
	s.mu.Unlock()

	result := WakeResult{
		Wake:   fired,
		Next:   next,
		Status: s.status.Status(now),
	}

	switch kind {
	case domain.WakeReminder:
		s.remind(ctx, now, &result)
	case domain.WakeEmergency:
		s.escalate(ctx, now, &result)
	}

	return result
}

// Fire runs the wake if its token is still current.
func (s *Scheduler) Fire(ctx context.Context, wake domain.ScheduledWake, now time.Time) WakeResult {
	s.mu.Lock()
	current, ok := s.pending[wake.Kind]
	s.mu.Unlock()

	if !ok || current.Token != wake.Token {
		logger.DebugKV(ctx, "Dropping superseded wake", "wake", wake.Kind.String(), "token", wake.Token)

		return WakeResult{
			Wake:       wake,
			Superseded: true,
			Err:        ErrStaleWake,
		}
	}

	return s.OnWake(ctx, wake.Kind, now)
}

// Due returns the armed wakes that may fire at now, in priority order.
func (s *Scheduler) Due(now time.Time) []domain.ScheduledWake {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []domain.ScheduledWake

	for _, kind := range domain.WakeKinds {
		if wake, ok := s.pending[kind]; ok && wake.Due(now) {
			due = append(due, wake)
		}
	}

	return due
}

// Pending returns the armed wake of the kind.
func (s *Scheduler) Pending(kind domain.WakeKind) (domain.ScheduledWake, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wake, ok := s.pending[kind]

	return wake, ok
}

// Phase returns the current phase.
func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.phase
}

// Restore re-arms the wakes after a restart, measured from the last check-in.
// Wakes whose time has already passed are armed at now.
func (s *Scheduler) Restore(ctx context.Context, now time.Time) {
	status := s.status.Status(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.pending)

	if status.LastCheckIn == nil {
		s.phase = PhaseIdle

		logger.Info(ctx, "No check-ins yet, escalation stays idle")

		return
	}

	last := status.LastCheckIn.Timestamp

	for _, kind := range domain.WakeKinds {
		at := last.Add(kind.Interval())
		if at.Before(now) {
			at = now
		}

		s.armLocked(kind, at)
	}

	if status.HasCheckedInToday {
		s.phase = PhaseReminderPending
	} else {
		s.phase = PhaseEmergencyPending
	}

	logger.InfoKV(ctx, "Escalation restored",
		"last_check_in", last,
		"phase", s.phase.String(),
	)
}

func (s *Scheduler) remind(ctx context.Context, now time.Time, result *WakeResult) {
	if result.Status.ElapsedDays < domain.ReminderDays || result.Status.HasCheckedInToday {
		return
	}

	s.mu.Lock()
	// A check-in racing with this wake owns the phase.
	if s.pending[domain.WakeReminder].Token == result.Next.Token {
		s.phase = PhaseEmergencyPending
	}
	s.mu.Unlock()

	result.ReminderSent = true

	if s.local == nil {
		return
	}

	if err := s.local.Notify(ctx, domain.NewReminder(uuid.NewString(), now)); err != nil {
		logger.ErrorKV(ctx, "Failed to show check-in reminder", "error", err)
	}
}

func (s *Scheduler) escalate(ctx context.Context, now time.Time, result *WakeResult) {
	if result.Status.ElapsedDays < domain.EmergencyDays {
		return
	}

	logger.WarnKV(ctx, "Emergency window elapsed, alerting contacts", "elapsed_days", result.Status.ElapsedDays)

	report := s.notifier.NotifyAll(ctx, now)
	result.Alert = &report
}

func (s *Scheduler) armLocked(kind domain.WakeKind, at time.Time) domain.ScheduledWake {
	wake := domain.ScheduledWake{
		Kind:      kind,
		NotBefore: at,
		Token:     uuid.NewString(),
	}

	s.pending[kind] = wake

	return wake
}
