package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/logger"
)

const (
	// mqttQoS is "at least once"; duplicates are harmless for the user.
	mqttQoS = 1
	// mqttConnectTimeout bounds the initial broker connection.
	mqttConnectTimeout = 10 * time.Second
	// mqttQuiesce is how long Close waits for in-flight work, in milliseconds.
	mqttQuiesce = 250
)

var (
	// ErrMissingDeviceToken is returned when FCM has no device to push to.
	ErrMissingDeviceToken = errors.New("device token is empty")
	// errConnectTimeout is returned when the broker does not answer in time.
	errConnectTimeout = errors.New("timed out connecting to MQTT broker")
)

// Log writes notifications to the daemon log.
type Log struct{}

// NewLog creates a log notifier.
func NewLog() *Log {
	return &Log{}
}

// Notify logs the notification.
func (*Log) Notify(ctx context.Context, n domain.LocalNotification) error {
	logger.InfoKV(ctx, n.Title,
		"notification_id", n.ID,
		"kind", string(n.Kind),
		"body", n.Body,
	)

	return nil
}

// publisher is the part of mqtt.Client used to deliver notifications.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
}

// MQTT publishes notifications as JSON to a topic the user's device subscribes to.
type MQTT struct {
	client publisher
	topic  string
	close  func()
}

// MQTTOptions configures the broker connection.
type MQTTOptions struct {
	Broker   string
	Topic    string
	Username string
	Password string
}

// DialMQTT connects to the broker.
func DialMQTT(opts MQTTOptions) (*MQTT, error) {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID("still-alive-" + uuid.NewString())

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}

	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	clientOpts.SetAutoReconnect(true)
	clientOpts.SetCleanSession(true)

	client := mqtt.NewClient(clientOpts)

	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, errConnectTimeout
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", opts.Broker, err)
	}

	return &MQTT{
		client: client,
		topic:  opts.Topic,
		close:  func() { client.Disconnect(mqttQuiesce) },
	}, nil
}

// Notify publishes n and waits for the broker to accept it or ctx to end.
func (m *MQTT) Notify(ctx context.Context, n domain.LocalNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	token := m.client.Publish(m.topic, mqttQoS, false, payload)

	select {
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", m.topic, ctx.Err())
	case <-token.Done():
		if err = token.Error(); err != nil {
			return fmt.Errorf("publish to %s: %w", m.topic, err)
		}

		return nil
	}
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	if m.close != nil {
		m.close()
	}

	return nil
}

// pushSender is implemented by *messaging.Client.
type pushSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM pushes notifications to the user's phone.
type FCM struct {
	client pushSender
	token  string
}

// NewFCM initializes a Firebase app from a service account file.
func NewFCM(ctx context.Context, credentialsPath, deviceToken string) (*FCM, error) {
	if deviceToken == "" {
		return nil, ErrMissingDeviceToken
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	return &FCM{
		client: client,
		token:  deviceToken,
	}, nil
}

// Notify sends n as a high-priority push.
func (f *FCM) Notify(ctx context.Context, n domain.LocalNotification) error {
	message := &messaging.Message{
		Token: f.token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: map[string]string{
			"id":        n.ID,
			"kind":      string(n.Kind),
			"timestamp": n.CreatedAt.UTC().Format(time.RFC3339),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:    "default",
				Priority: messaging.PriorityHigh,
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	id, err := f.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}

	logger.DebugKV(ctx, "Push delivered", "message_id", id, "kind", string(n.Kind))

	return nil
}
