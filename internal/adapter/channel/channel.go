package channel

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
)

// ErrNoRoute is returned when no sender is configured for a channel.
var ErrNoRoute = errors.New("no sender configured for channel")

// Sender delivers a message over a single channel.
type Sender interface {
	Send(ctx context.Context, channel domain.Channel, destination string, message domain.Message) error
}

// Router dispatches each send to the sender registered for its channel.
type Router struct {
	senders map[domain.Channel]Sender
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{senders: make(map[domain.Channel]Sender, len(domain.AllChannels))}
}

// Handle registers sender for the channels. Later registrations win.
func (r *Router) Handle(sender Sender, channels ...domain.Channel) *Router {
	for _, ch := range channels {
		r.senders[ch] = sender
	}

	return r
}

// Channels lists the channels that have a sender.
func (r *Router) Channels() []domain.Channel {
	result := make([]domain.Channel, 0, len(r.senders))

	for _, ch := range domain.AllChannels {
		if _, ok := r.senders[ch]; ok {
			result = append(result, ch)
		}
	}

	return result
}

// Send implements Sender.
func (r *Router) Send(ctx context.Context, ch domain.Channel, destination string, message domain.Message) error {
	sender, ok := r.senders[ch]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoRoute, ch)
	}

	return sender.Send(ctx, ch, destination, message)
}

// Throttled caps the rate of sends going through next.
type Throttled struct {
	next    Sender
	limiter *rate.Limiter
}

// NewThrottled allows perSecond sends with a burst of burst.
func NewThrottled(next Sender, perSecond float64, burst int) *Throttled {
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), max(burst, 1)),
	}
}

// Send waits for a token, then sends.
func (t *Throttled) Send(ctx context.Context, ch domain.Channel, destination string, message domain.Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	return t.next.Send(ctx, ch, destination, message)
}
