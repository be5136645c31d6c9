package channel

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
)

// ErrSMTPNotConfigured is returned when the email relay is missing.
var ErrSMTPNotConfigured = errors.New("SMTP relay not configured")

// mailDialer is implemented by *gomail.Dialer.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender sends alerts through an SMTP relay.
type EmailSender struct {
	dialer mailDialer
	from   string
}

// NewEmailSender creates a sender for the relay at host:port.
func NewEmailSender(host string, port int, username, password, from string) (*EmailSender, error) {
	if host == "" || from == "" {
		return nil, ErrSMTPNotConfigured
	}

	return &EmailSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}, nil
}

// Send implements Sender. The SMTP exchange keeps running in the background
// if ctx expires first.
func (s *EmailSender) Send(ctx context.Context, _ domain.Channel, destination string, message domain.Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", destination)
	m.SetHeader("Subject", message.Subject)
	m.SetBody("text/plain", message.Body)

	done := make(chan error, 1)

	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send email to %s: %w", destination, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email to %s: %w", destination, err)
		}

		return nil
	}
}
