package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/still-alive/internal/adapter/channel"
	"github.com/oshokin/still-alive/internal/adapter/local"
	"github.com/oshokin/still-alive/internal/adapter/location"
	"github.com/oshokin/still-alive/internal/config"
	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/repository/kv"
)

func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	addr, err := resolveListenAddress("localhost:9090", "")
	require.NoError(t, err)
	require.Equal(t, ":9090", addr)

	addr, err = resolveListenAddress("localhost:9090", "127.0.0.1:7000")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7000", addr)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		store, closer, err := openStore(ctx, config.StoreConfig{Driver: config.StoreFile, Path: t.TempDir()})
		require.NoError(t, err)
		require.IsType(t, &kv.FileStore{}, store)
		require.NoError(t, closer.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()

		store, closer, err := openStore(ctx, config.StoreConfig{
			Driver: config.StoreSQLite,
			Path:   filepath.Join(t.TempDir(), "alive.db"),
		})
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, kv.KeyLedger, []byte(`[]`)))
		require.NoError(t, closer.Close())
	})

	t.Run("redis", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)

		store, closer, err := openStore(ctx, config.StoreConfig{Driver: config.StoreRedis, RedisAddress: mr.Addr()})
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, kv.KeyContacts, []byte(`[]`)))
		require.Len(t, mr.Keys(), 1)

		data, err := store.Get(ctx, kv.KeyContacts)
		require.NoError(t, err)
		require.Equal(t, `[]`, string(data))
		require.NoError(t, closer.Close())
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()

		_, _, err := openStore(ctx, config.StoreConfig{Driver: "etcd"})
		require.ErrorIs(t, err, config.ErrUnknownStoreDriver)
	})
}

func TestBuildSender(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	sender, err := buildSender(ctx, &config.Config{
		Gateways: config.GatewayConfig{Chat: "http://127.0.0.1:1/chat", SMS: "http://127.0.0.1:1/sms"},
	})
	require.NoError(t, err)

	router, ok := sender.(*channel.Router)
	require.True(t, ok)
	require.ElementsMatch(t, []domain.Channel{domain.ChannelSMS, domain.ChannelChat}, router.Channels())

	sender, err = buildSender(ctx, &config.Config{SendRate: 2})
	require.NoError(t, err)
	require.IsType(t, &channel.Throttled{}, sender)

	err = sender.Send(ctx, domain.ChannelEmail, "ann@example.com", domain.Message{Body: "hi"})
	require.ErrorIs(t, err, channel.ErrNoRoute)
}

func TestBuildLocation(t *testing.T) {
	t.Parallel()

	require.Nil(t, buildLocation(config.LocationConfig{}))
	require.IsType(t, &location.Static{}, buildLocation(config.LocationConfig{Latitude: 1, Longitude: 2}))
	require.IsType(t, &location.HTTP{}, buildLocation(config.LocationConfig{URL: "http://127.0.0.1:1/fix", Latitude: 1}))
}

func TestBuildLocal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	n, closer, err := buildLocal(ctx, config.LocalConfig{})
	require.NoError(t, err)
	require.IsType(t, &local.Log{}, n)
	require.NoError(t, closer.Close())

	_, _, err = buildLocal(ctx, config.LocalConfig{Driver: "pager"})
	require.ErrorIs(t, err, config.ErrUnknownLocalDriver)

	_, _, err = buildLocal(ctx, config.LocalConfig{Driver: config.LocalFCM})
	require.ErrorIs(t, err, local.ErrMissingDeviceToken)
}
