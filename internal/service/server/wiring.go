package server

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/oshokin/still-alive/internal/adapter/channel"
	"github.com/oshokin/still-alive/internal/adapter/local"
	"github.com/oshokin/still-alive/internal/adapter/location"
	"github.com/oshokin/still-alive/internal/config"
	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/logger"
	"github.com/oshokin/still-alive/internal/repository/kv"
	"github.com/oshokin/still-alive/internal/repository/kv/pgstore"
	"github.com/oshokin/still-alive/internal/repository/kv/redisstore"
	"github.com/oshokin/still-alive/internal/repository/kv/sqlitestore"
	"github.com/oshokin/still-alive/internal/service/notifier"
)

// closerFunc adapts a function to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// nopCloser is used for components without resources.
var nopCloser = closerFunc(func() error { return nil }) //nolint:gochecknoglobals // Stateless.

// openStore opens the configured key-value backend.
func openStore(ctx context.Context, cfg config.StoreConfig) (kv.Store, io.Closer, error) {
	switch cfg.Driver {
	case config.StoreRedis:
		store, err := redisstore.New(ctx, redisstore.Options{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, nil, err
		}

		return store, store, nil
	case config.StoreSQLite:
		store, err := sqlitestore.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}

		return store, store, nil
	case config.StorePostgres:
		store, err := pgstore.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}

		return store, store, nil
	case config.StoreFile, "":
		store, err := kv.NewFileStore(filepath.Clean(cfg.Path))
		if err != nil {
			return nil, nil, err
		}

		return store, nopCloser, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownStoreDriver, cfg.Driver)
	}
}

// buildSender routes every configured channel to its delivery adapter.
func buildSender(ctx context.Context, cfg *config.Config) (notifier.ChannelSender, error) {
	router := channel.NewRouter()

	if cfg.Email.Host != "" {
		email, err := channel.NewEmailSender(cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password, cfg.Email.From)
		if err != nil {
			return nil, fmt.Errorf("email channel: %w", err)
		}

		router.Handle(email, domain.ChannelEmail)
	}

	gateways := map[domain.Channel]string{
		domain.ChannelSMS:      cfg.Gateways.SMS,
		domain.ChannelWhatsApp: cfg.Gateways.WhatsApp,
		domain.ChannelChat:     cfg.Gateways.Chat,
	}

	for ch, endpoint := range gateways {
		if endpoint != "" {
			router.Handle(channel.NewWebhookSender(endpoint, cfg.Gateways.Token), ch)
		}
	}

	configured := router.Channels()
	if len(configured) == 0 {
		logger.Warn(ctx, "No delivery channel configured, emergency alerts cannot reach anyone")
	} else {
		logger.InfoKV(ctx, "Delivery channels configured", "channels", configured)
	}

	if cfg.SendRate <= 0 {
		return router, nil
	}

	return channel.NewThrottled(router, cfg.SendRate, len(domain.AllChannels)), nil
}

// buildLocation picks the location source. Nil means the location is unavailable.
func buildLocation(cfg config.LocationConfig) notifier.LocationProvider {
	switch {
	case cfg.URL != "":
		return location.NewHTTP(cfg.URL)
	case cfg.Latitude != 0 || cfg.Longitude != 0:
		return location.NewStatic(cfg.Latitude, cfg.Longitude)
	default:
		return nil
	}
}

// buildLocal creates the on-device notifier.
func buildLocal(ctx context.Context, cfg config.LocalConfig) (notifier.LocalNotifier, io.Closer, error) {
	switch cfg.Driver {
	case config.LocalMQTT:
		mqtt, err := local.DialMQTT(local.MQTTOptions{
			Broker:   cfg.MQTTBroker,
			Topic:    cfg.MQTTTopic,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		})
		if err != nil {
			return nil, nil, err
		}

		return mqtt, mqtt, nil
	case config.LocalFCM:
		fcm, err := local.NewFCM(ctx, cfg.FCMCredentials, cfg.FCMToken)
		if err != nil {
			return nil, nil, err
		}

		return fcm, nopCloser, nil
	case config.LocalLog, "":
		return local.NewLog(), nopCloser, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownLocalDriver, cfg.Driver)
	}
}
