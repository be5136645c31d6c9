package integration

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/still-alive/internal/config"
	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/service/client"
	"github.com/oshokin/still-alive/internal/service/common"
	"github.com/oshokin/still-alive/internal/service/contacts"
	"github.com/oshokin/still-alive/internal/service/escalation"
	"github.com/oshokin/still-alive/internal/service/server"
)

// reservePort returns a free local address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// writeConfig saves cfg next to a fresh data directory and returns its path.
func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))

	return cfgPath
}

// startServer runs alive-server in the background and waits until it answers.
// Returns a stop function that cancels the server and waits for it to exit.
func startServer(t *testing.T, cfgPath string) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{ConfigPath: cfgPath})
	}()

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	c, err := common.Dial(ctx, cfg.ServerAddress, common.WithCallTimeout(time.Second))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	require.Eventually(t, func() bool {
		_, err := c.Status(ctx)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

// TestGRPC_Roundtrip starts the real server and exercises check-in and contacts with on-disk persistence.
func TestGRPC_Roundtrip(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	httpAddr := reservePort(t)
	dataDir := filepath.Join(t.TempDir(), "data")

	cfgPath := writeConfig(t, &config.Config{
		ServerAddress: addr,
		HTTPAddress:   httpAddr,
		Timezone:      "UTC",
		Store:         config.StoreConfig{Driver: config.StoreFile, Path: dataDir},
	})

	stop := startServer(t, cfgPath)

	ctx := context.Background()

	c, err := common.Dial(ctx, addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	overview, err := c.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.TierCritical, overview.Status.Tier)
	require.Equal(t, escalation.PhaseIdle.String(), overview.Phase)

	event, overview, err := c.CheckIn(ctx, &domain.Actor{Hostname: "test-hostname", Username: "test-user"})
	require.NoError(t, err)
	require.NotEmpty(t, event.ID)
	require.Equal(t, domain.TierFresh, overview.Status.Tier)
	require.Equal(t, escalation.PhaseReminderPending.String(), overview.Phase)
	require.WithinDuration(t, event.Timestamp.Add(24*time.Hour), overview.NextReminder, time.Second)

	reply, err := c.AddContact(ctx, &domain.Contact{
		Name:     "Ann",
		Phone:    "(555) 123-4567",
		Channels: domain.NewChannelSet(domain.ChannelSMS),
	})
	require.NoError(t, err)
	require.Equal(t, contacts.AddSuccess, reply.Result.Outcome)

	reply, err = c.AddContact(ctx, &domain.Contact{
		Name:     "Ann again",
		Phone:    "555-123-4567",
		Channels: domain.NewChannelSet(domain.ChannelWhatsApp),
	})
	require.NoError(t, err)
	require.Equal(t, contacts.AddDuplicate, reply.Result.Outcome)
	require.Equal(t, "Ann", reply.Result.ExistingName)

	resp, err := http.Get("http://" + httpAddr + "/api/status") //nolint:noctx // Test code.
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// Verify state was persisted to disk.
	for _, name := range []string{"ledger.json", "contacts.json"} {
		_, err = os.Stat(filepath.Join(dataDir, name))
		require.NoError(t, err)
	}

	stop()

	// A restarted server picks up history, contacts and escalation.
	stop = startServer(t, cfgPath)
	defer stop()

	overview, err = c.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, event.ID, overview.Status.LastCheckIn.ID)
	require.Equal(t, 1, overview.Contacts)
	require.Equal(t, escalation.PhaseReminderPending.String(), overview.Phase)

	var out bytes.Buffer

	require.NoError(t, client.ListContacts(ctx, &client.Options{ConfigPath: cfgPath}, &out))
	require.Contains(t, out.String(), "(555) 123-4567")
}
