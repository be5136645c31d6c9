package trigger

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/repository/kv"
	"github.com/oshokin/still-alive/internal/service/escalation"
	"github.com/oshokin/still-alive/internal/service/ledger"
	"github.com/oshokin/still-alive/internal/service/notifier"
)

type recordingLocal struct {
	mu    sync.Mutex
	kinds []domain.LocalKind
}

func (r *recordingLocal) Notify(_ context.Context, n domain.LocalNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.kinds = append(r.kinds, n.Kind)

	return nil
}

func (r *recordingLocal) count(kind domain.LocalKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0

	for _, k := range r.kinds {
		if k == kind {
			n++
		}
	}

	return n
}

type countingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (c *countingNotifier) NotifyAll(_ context.Context, now time.Time) notifier.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++

	return notifier.Report{At: now}
}

func (c *countingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls
}

// TestRun_FiresWakesOverTime lets a day and then two days pass without a check-in.
func TestRun_FiresWakesOverTime(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		l := ledger.New(kv.NewMemoryStore(), time.UTC)
		local := &recordingLocal{}
		alerts := &countingNotifier{}
		s := escalation.New(l, alerts, local)

		start := time.Now()
		l.Record(ctx, start)
		s.OnCheckIn(ctx, start)

		done := make(chan error, 1)

		go func() {
			done <- Run(ctx, s, Options{PollInterval: time.Minute})
		}()

		time.Sleep(23 * time.Hour)
		synctest.Wait()
		require.Zero(t, local.count(domain.LocalReminder))

		time.Sleep(2 * time.Hour)
		synctest.Wait()
		require.Equal(t, 1, local.count(domain.LocalReminder))
		require.Zero(t, alerts.count())

		time.Sleep(24 * time.Hour)
		synctest.Wait()
		require.Equal(t, 1, alerts.count())
		require.Equal(t, escalation.PhaseEmergencyPending, s.Phase())

		cancel()
		require.NoError(t, <-done)
	})
}

// TestRun_FiresOverdueWakesImmediately checks the first pass after a restart.
func TestRun_FiresOverdueWakesImmediately(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		l := ledger.New(kv.NewMemoryStore(), time.UTC)
		alerts := &countingNotifier{}
		s := escalation.New(l, alerts, nil)

		l.Record(ctx, time.Now().Add(-72*time.Hour))
		s.Restore(ctx, time.Now())

		done := make(chan error, 1)

		go func() {
			done <- Run(ctx, s, Options{PollInterval: time.Hour})
		}()

		synctest.Wait()
		require.Equal(t, 1, alerts.count())

		next, ok := s.Pending(domain.WakeEmergency)
		require.True(t, ok)
		require.Equal(t, time.Now().Add(48*time.Hour), next.NotBefore)

		cancel()
		require.NoError(t, <-done)
	})
}
