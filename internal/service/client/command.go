package client

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/oshokin/still-alive/internal/config"
	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/logger"
	"github.com/oshokin/still-alive/internal/service/common"
	"github.com/oshokin/still-alive/internal/service/contacts"
)

// Options configures how alive-ctl reaches the server.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// RetryInterval is the delay between check-in attempts.
	RetryInterval time.Duration
}

// defaultRetryInterval defines retry delay when pushing a check-in to the server.
const defaultRetryInterval = 1 * time.Second

// connect loads settings and dials the server.
func connect(ctx context.Context, opts *Options) (*common.Client, string, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, "", err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, "", err
	}

	return client, serverAddress, nil
}

// CheckIn records a check-in, retrying until the server confirms or ctx ends.
//
//nolint:cyclop // Retry loop with immediate first attempt.
func CheckIn(ctx context.Context, opts *Options, out io.Writer) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alive-ctl")

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, serverAddress, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Sending check-in", "server_address", serverAddress, "actor", actor.String())

	// attempt tries once to check in, returns whether the server confirmed it.
	attempt := func() bool {
		event, overview, err := client.CheckIn(ctx, actor)
		if err != nil {
			// Log error but continue retrying for transient failures.
			logger.ErrorKV(ctx, "CheckIn failed", "error", err)
			return false
		}

		_, _ = fmt.Fprintf(out, "Checked in at %s. Next reminder %s.\n",
			event.Timestamp.Local().Format(time.RFC1123), formatTime(overview.NextReminder))

		return true
	}

	// Attempt immediately before starting retry loop.
	if attempt() {
		return nil
	}

	interval := opts.RetryInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Retry loop until success or cancellation.
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if attempt() {
				return nil
			}
		}
	}
}

// Status prints the monitor overview.
func Status(ctx context.Context, opts *Options, out io.Writer) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	overview, err := client.Status(ctx)
	if err != nil {
		return err
	}

	return printOverview(out, overview)
}

// ListContacts prints the registered contacts with their positions.
func ListContacts(ctx context.Context, opts *Options, out io.Writer) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	list, err := client.Contacts(ctx)
	if err != nil {
		return err
	}

	return printContacts(out, list)
}

// AddContact registers contact and prints the outcome. Rejections are not errors.
func AddContact(ctx context.Context, opts *Options, contact *domain.Contact, out io.Writer) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	reply, err := client.AddContact(ctx, contact)
	if err != nil {
		return err
	}

	switch reply.Result.Outcome {
	case contacts.AddSuccess:
		_, _ = fmt.Fprintf(out, "Added %s.\n", reply.Result.Contact.Name)
	case contacts.AddLimitReached:
		_, _ = fmt.Fprintf(out, "Contact limit reached: at most %d emergency contacts.\n", domain.MaxContacts)
	case contacts.AddDuplicate:
		_, _ = fmt.Fprintf(out, "%s is already registered with the same phone or email.\n", reply.Result.ExistingName)
	case contacts.AddInvalid:
		_, _ = fmt.Fprintf(out, "Contact rejected: %v.\n", reply.Result.Reason)
	}

	if reply.Warning != "" {
		_, _ = fmt.Fprintf(out, "Warning: %s.\n", reply.Warning)
	}

	return nil
}

// RemoveContacts removes contacts by their listed positions.
func RemoveContacts(ctx context.Context, opts *Options, positions []int, out io.Writer) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	reply, err := client.RemoveContacts(ctx, positions)
	if err != nil {
		return err
	}

	if reply.Warning != "" {
		_, _ = fmt.Fprintf(out, "Warning: %s.\n", reply.Warning)
	}

	return printContacts(out, reply.Contacts)
}

func printOverview(out io.Writer, o domain.Overview) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	last := "never"
	if o.Status.LastCheckIn != nil {
		last = formatTime(o.Status.LastCheckIn.Timestamp)
	}

	elapsed := "-"
	if o.Status.LastCheckIn != nil {
		elapsed = strconv.Itoa(o.Status.ElapsedDays)
	}

	_, _ = fmt.Fprintf(w, "Tier:\t%s\n", o.Status.Tier)
	_, _ = fmt.Fprintf(w, "Checked in today:\t%t\n", o.Status.HasCheckedInToday)
	_, _ = fmt.Fprintf(w, "Last check-in:\t%s\n", last)
	_, _ = fmt.Fprintf(w, "Days since:\t%s\n", elapsed)
	_, _ = fmt.Fprintf(w, "Phase:\t%s\n", o.Phase)
	_, _ = fmt.Fprintf(w, "Next reminder:\t%s\n", formatTime(o.NextReminder))
	_, _ = fmt.Fprintf(w, "Next emergency:\t%s\n", formatTime(o.NextEmergency))
	_, _ = fmt.Fprintf(w, "Contacts:\t%d (%d slots left)\n", o.Contacts, o.RemainingSlots)

	return w.Flush()
}

func printContacts(out io.Writer, list []*domain.Contact) error {
	if len(list) == 0 {
		_, _ = fmt.Fprintln(out, "No emergency contacts.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tNAME\tPHONE\tEMAIL\tCHAT\tCHANNELS")

	for i, c := range list {
		names := make([]string, 0, len(c.Channels))
		for _, ch := range c.Channels.Sorted() {
			names = append(names, ch.String())
		}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i, c.Name, dash(c.Phone), dash(c.Email), dash(c.ChatHandle), dash(strings.Join(names, ",")))
	}

	return w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Local().Format(time.RFC1123)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
