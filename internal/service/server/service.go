package server

import (
	"context"
	"time"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/logger"
	"github.com/oshokin/still-alive/internal/service/contacts"
	"github.com/oshokin/still-alive/internal/service/escalation"
	"github.com/oshokin/still-alive/internal/service/ledger"
)

// service ties the ledger, the registry and the scheduler together for the
// transports. It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// ledger records check-ins.
	ledger *ledger.Ledger
	// registry holds the emergency contacts.
	registry *contacts.Registry
	// scheduler is re-armed on every check-in.
	scheduler *escalation.Scheduler
	// now returns the current time.
	now func() time.Time
}

// newService creates a service over already loaded components.
func newService(l *ledger.Ledger, r *contacts.Registry, s *escalation.Scheduler) *service {
	return &service{
		ledger:    l,
		registry:  r,
		scheduler: s,
		now:       time.Now,
	}
}

// CheckIn records a check-in and re-arms escalation.
func (s *service) CheckIn(ctx context.Context, actor *domain.Actor) (domain.CheckInEvent, domain.Overview) {
	now := s.now()

	event := s.ledger.Record(ctx, now)
	s.scheduler.OnCheckIn(ctx, now)

	logger.InfoKV(ctx, "Check-in accepted", "check_in_id", event.ID, "actor", actor.String())

	return event, s.overviewAt(now)
}

// Overview returns the current monitor state.
func (s *service) Overview(ctx context.Context) domain.Overview {
	overview := s.overviewAt(s.now())

	logger.DebugKV(ctx, "Status requested", "tier", overview.Status.Tier.String(), "phase", overview.Phase)

	return overview
}

// Contacts returns the registered contacts.
func (s *service) Contacts(context.Context) []*domain.Contact {
	return s.registry.Snapshot()
}

// AddContact adds an emergency contact.
func (s *service) AddContact(ctx context.Context, contact *domain.Contact) (contacts.AddResult, error) {
	return s.registry.Add(ctx, contact)
}

// RemoveContacts removes contacts by position and returns the remaining ones.
func (s *service) RemoveContacts(ctx context.Context, positions []int) ([]*domain.Contact, error) {
	err := s.registry.Remove(ctx, positions)

	return s.registry.Snapshot(), err
}

func (s *service) overviewAt(now time.Time) domain.Overview {
	overview := domain.Overview{
		Status:         s.ledger.Status(now),
		Phase:          s.scheduler.Phase().String(),
		Contacts:       len(s.registry.Snapshot()),
		RemainingSlots: s.registry.RemainingSlots(),
	}

	if wake, ok := s.scheduler.Pending(domain.WakeReminder); ok {
		overview.NextReminder = wake.NotBefore
	}

	if wake, ok := s.scheduler.Pending(domain.WakeEmergency); ok {
		overview.NextEmergency = wake.NotBefore
	}

	return overview
}
