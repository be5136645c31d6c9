package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
)

// DefaultGatewayTimeout bounds a gateway request.
const DefaultGatewayTimeout = 30 * time.Second

// ErrGatewayRejected is returned when the gateway answers with an error status.
var ErrGatewayRejected = errors.New("gateway rejected message")

// gatewayRequest is the JSON body posted to a messaging gateway.
type gatewayRequest struct {
	Channel string `json:"channel"`
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Text    string `json:"text"`
}

// WebhookSender posts alerts to an HTTP messaging gateway (SMS, WhatsApp, chat).
type WebhookSender struct {
	client   *resty.Client
	endpoint string
}

// NewWebhookSender creates a sender for the gateway endpoint. An empty token
// disables authentication.
func NewWebhookSender(endpoint, token string) *WebhookSender {
	client := resty.New().
		SetTimeout(DefaultGatewayTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if token != "" {
		client.SetAuthToken(token)
	}

	return &WebhookSender{
		client:   client,
		endpoint: endpoint,
	}
}

// Send implements Sender. It does not retry.
func (s *WebhookSender) Send(ctx context.Context, ch domain.Channel, destination string, message domain.Message) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(gatewayRequest{
			Channel: ch.String(),
			To:      destination,
			Subject: message.Subject,
			Text:    message.Body,
		}).
		Post(s.endpoint)
	if err != nil {
		return fmt.Errorf("post %s message: %w", ch, err)
	}

	if resp.IsError() {
		return fmt.Errorf("%w: %s answered %d", ErrGatewayRejected, ch, resp.StatusCode())
	}

	return nil
}
