package trigger

import (
	"context"
	"time"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/logger"
	"github.com/oshokin/still-alive/internal/service/escalation"
)

// DefaultPollInterval is how often pending wakes are checked.
const DefaultPollInterval = time.Minute

// Scheduler is the part of escalation.Scheduler the loop drives.
type Scheduler interface {
	Due(now time.Time) []domain.ScheduledWake
	Fire(ctx context.Context, wake domain.ScheduledWake, now time.Time) escalation.WakeResult
}

// Options controls the polling loop.
type Options struct {
	// PollInterval defines the interval between checks for due wakes.
	PollInterval time.Duration
	// Now returns the current time, time.Now when nil.
	Now func() time.Time
}

// Run fires due wakes one at a time until ctx is canceled.
// Wakes that became due while the process was down fire on the first pass.
func Run(ctx context.Context, scheduler Scheduler, opts Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "trigger")

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger.InfoKV(ctx, "Watching escalation wakes", "interval", opts.PollInterval.String())

	fireDue(ctx, scheduler, opts.Now())

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
			fireDue(ctx, scheduler, opts.Now())
		}
	}
}

// fireDue fires every wake due at now. A wake re-armed by an earlier one in
// the same pass is dropped as stale by the scheduler.
func fireDue(ctx context.Context, scheduler Scheduler, now time.Time) {
	for _, wake := range scheduler.Due(now) {
		if ctx.Err() != nil {
			return
		}

		result := scheduler.Fire(ctx, wake, now)

		switch {
		case result.Superseded:
			logger.DebugKV(ctx, "Wake superseded", "wake", wake.Kind.String())
		case result.Alert != nil:
			logger.InfoKV(ctx, "Wake alerted contacts",
				"wake", wake.Kind.String(),
				"delivered", result.Alert.Delivered(),
				"failed", result.Alert.Failed(),
			)
		default:
			logger.DebugKV(ctx, "Wake completed",
				"wake", wake.Kind.String(),
				"reminder_sent", result.ReminderSent,
				"next", result.Next.NotBefore,
			)
		}
	}
}
