package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/logger"
	"github.com/oshokin/still-alive/internal/repository/kv"
)

// Ledger is the check-in history, most recent first.
type Ledger struct {
	// store persists the history under kv.KeyLedger.
	store kv.Store
	// loc is the calendar used for "today" and day counting.
	loc *time.Location
	// events is ordered most recent first and holds at most domain.MaxCheckIns entries.
	events []domain.CheckInEvent
	// mu protects events.
	mu sync.RWMutex
}

// New creates an empty ledger. A nil loc means time.Local.
func New(store kv.Store, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.Local
	}

	return &Ledger{
		store: store,
		loc:   loc,
	}
}

// Load replaces the in-memory history with the persisted one.
// A missing key leaves the ledger empty.
func (l *Ledger) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	data, err := l.store.Get(ctx, kv.KeyLedger)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("load ledger: %w", err)
	}

	var events []domain.CheckInEvent
	if err = json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("decode ledger: %w", err)
	}

	slices.SortStableFunc(events, func(a, b domain.CheckInEvent) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	events = trim(events)

	l.mu.Lock()
	l.events = events
	l.mu.Unlock()

	logger.DebugKV(ctx, "Ledger loaded", "check_ins", len(events))

	return nil
}

// Record prepends a check-in at now and persists the history.
// A persistence failure is logged; the check-in is kept in memory regardless.
func (l *Ledger) Record(ctx context.Context, now time.Time) domain.CheckInEvent {
	event := domain.CheckInEvent{
		ID:        uuid.NewString(),
		Timestamp: now,
	}

	l.mu.Lock()

	// Keep the head non-increasing even if the wall clock stepped back.
	if len(l.events) > 0 && l.events[0].Timestamp.After(now) {
		event.Timestamp = l.events[0].Timestamp
	}

	l.events = trim(append([]domain.CheckInEvent{event}, l.events...))
	snapshot := slices.Clone(l.events)

	l.mu.Unlock()

	if err := l.persist(ctx, snapshot); err != nil {
		logger.ErrorKV(ctx, "Failed to persist check-in, keeping it in memory", "check_in_id", event.ID, "error", err)
	}

	logger.InfoKV(ctx, "Check-in recorded", "check_in_id", event.ID, "timestamp", event.Timestamp)

	return event
}

// LastCheckIn returns the most recent check-in.
func (l *Ledger) LastCheckIn() (domain.CheckInEvent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.events) == 0 {
		return domain.CheckInEvent{}, false
	}

	return l.events[0], true
}

// Status computes staleness relative to now.
func (l *Ledger) Status(now time.Time) domain.Status {
	last, ok := l.LastCheckIn()
	if !ok {
		return domain.Status{
			ElapsedDays: domain.NeverCheckedIn,
			Tier:        domain.TierCritical,
		}
	}

	today := domain.SameDay(last.Timestamp, now, l.loc)

	return domain.Status{
		LastCheckIn:       &last,
		ElapsedDays:       domain.ElapsedDays(last.Timestamp, now, l.loc),
		HasCheckedInToday: today,
		Tier:              domain.ClassifyTier(now.Sub(last.Timestamp), true, today),
	}
}

// Tier returns the escalation tier at now.
func (l *Ledger) Tier(now time.Time) domain.Tier {
	return l.Status(now).Tier
}

// Snapshot returns a copy of the history, most recent first.
func (l *Ledger) Snapshot() []domain.CheckInEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slices.Clone(l.events)
}

// Location returns the calendar the ledger counts days in.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

func (l *Ledger) persist(ctx context.Context, events []domain.CheckInEvent) error {
	if l.store == nil {
		return nil
	}

	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	return l.store.Set(ctx, kv.KeyLedger, data)
}

// trim drops the oldest entries beyond domain.MaxCheckIns.
func trim(events []domain.CheckInEvent) []domain.CheckInEvent {
	if len(events) > domain.MaxCheckIns {
		return events[:domain.MaxCheckIns]
	}

	return events
}
