package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/repository/kv"
)

var errDiskFull = errors.New("disk full")

// failingStore rejects every write.
type failingStore struct {
	kv.MemoryStore
}

// Set always fails.
func (f *failingStore) Set(context.Context, string, []byte) error {
	return errDiskFull
}

var day0 = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

// TestLedger_CapAndOrder records more than the cap and checks order and size.
func TestLedger_CapAndOrder(t *testing.T) {
	t.Parallel()

	l := New(kv.NewMemoryStore(), time.UTC)

	for i := range domain.MaxCheckIns + 5 {
		l.Record(context.Background(), day0.Add(time.Duration(i)*time.Hour))

		events := l.Snapshot()
		require.LessOrEqual(t, len(events), domain.MaxCheckIns)

		for j := 1; j < len(events); j++ {
			require.False(t, events[j].Timestamp.After(events[j-1].Timestamp))
		}
	}

	events := l.Snapshot()
	require.Len(t, events, domain.MaxCheckIns)
	require.Equal(t, day0.Add(34*time.Hour), events[0].Timestamp)
	require.Equal(t, day0.Add(5*time.Hour), events[len(events)-1].Timestamp)
}

// TestLedger_ClockStepBack keeps the head non-increasing.
func TestLedger_ClockStepBack(t *testing.T) {
	t.Parallel()

	l := New(nil, time.UTC)
	l.Record(context.Background(), day0)
	l.Record(context.Background(), day0.Add(-time.Minute))

	events := l.Snapshot()
	require.Len(t, events, 2)
	require.Equal(t, events[1].Timestamp, events[0].Timestamp)
}

// TestLedger_Status covers empty, today, overdue and critical states.
func TestLedger_Status(t *testing.T) {
	t.Parallel()

	l := New(nil, time.UTC)

	status := l.Status(day0)
	require.Nil(t, status.LastCheckIn)
	require.False(t, status.HasCheckedInToday)
	require.Equal(t, domain.NeverCheckedIn, status.ElapsedDays)
	require.Equal(t, domain.TierCritical, status.Tier)

	event := l.Record(context.Background(), day0)

	status = l.Status(day0.Add(2 * time.Hour))
	require.Equal(t, event, *status.LastCheckIn)
	require.True(t, status.HasCheckedInToday)
	require.Equal(t, 0, status.ElapsedDays)
	require.Equal(t, domain.TierFresh, status.Tier)

	// Just after midnight: not today anymore, but not a full day either.
	status = l.Status(time.Date(2026, 4, 11, 0, 5, 0, 0, time.UTC))
	require.False(t, status.HasCheckedInToday)
	require.Equal(t, 0, status.ElapsedDays)
	require.Equal(t, domain.TierOverdue, status.Tier)

	status = l.Status(day0.Add(30 * time.Hour))
	require.False(t, status.HasCheckedInToday)
	require.Equal(t, 1, status.ElapsedDays)
	require.Equal(t, domain.TierOverdue, status.Tier)

	status = l.Status(day0.Add(49 * time.Hour))
	require.Equal(t, 2, status.ElapsedDays)
	require.Equal(t, domain.TierCritical, status.Tier)
	require.Equal(t, domain.TierCritical, l.Tier(day0.Add(49*time.Hour)))
}

// TestLedger_TodayFollowsCalendar checks "today" against the configured zone.
func TestLedger_TodayFollowsCalendar(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	l := New(nil, tokyo)

	// 14:00 UTC is 23:00 in Tokyo; 16:00 UTC is already the next day there.
	l.Record(context.Background(), time.Date(2026, 4, 10, 14, 0, 0, 0, time.UTC))

	require.False(t, l.Status(time.Date(2026, 4, 10, 16, 0, 0, 0, time.UTC)).HasCheckedInToday)
	require.True(t, l.Status(time.Date(2026, 4, 10, 14, 30, 0, 0, time.UTC)).HasCheckedInToday)
}

// TestLedger_PersistAndLoad persists through the store and restores on a new ledger.
func TestLedger_PersistAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemoryStore()

	l := New(store, time.UTC)
	first := l.Record(ctx, day0)
	second := l.Record(ctx, day0.Add(time.Hour))

	raw, err := store.Get(ctx, kv.KeyLedger)
	require.NoError(t, err)

	var persisted []map[string]any
	require.NoError(t, json.Unmarshal(raw, &persisted))
	require.Len(t, persisted, 2)
	require.Equal(t, second.ID, persisted[0]["id"])
	require.Contains(t, persisted[0], "timestamp")

	restored := New(store, time.UTC)
	require.NoError(t, restored.Load(ctx))

	last, ok := restored.LastCheckIn()
	require.True(t, ok)
	require.Equal(t, second.ID, last.ID)
	require.Equal(t, first.ID, restored.Snapshot()[1].ID)
}

// TestLedger_LoadMissingAndCorrupt handles absent and broken data.
func TestLedger_LoadMissingAndCorrupt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemoryStore()

	l := New(store, time.UTC)
	require.NoError(t, l.Load(ctx))
	require.Empty(t, l.Snapshot())

	require.NoError(t, store.Set(ctx, kv.KeyLedger, []byte("{not json")))
	require.Error(t, l.Load(ctx))
}

// TestLedger_PersistFailureKeepsMemory degrades to memory-only on write errors.
func TestLedger_PersistFailureKeepsMemory(t *testing.T) {
	t.Parallel()

	l := New(new(failingStore), time.UTC)

	event := l.Record(context.Background(), day0)

	last, ok := l.LastCheckIn()
	require.True(t, ok)
	require.Equal(t, event.ID, last.ID)
	require.True(t, l.Status(day0).HasCheckedInToday)
}
