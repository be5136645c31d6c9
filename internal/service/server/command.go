package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/still-alive/internal/api/grpc/liveness"
	"github.com/oshokin/still-alive/internal/api/http/status"
	"github.com/oshokin/still-alive/internal/config"
	"github.com/oshokin/still-alive/internal/logger"
	"github.com/oshokin/still-alive/internal/service/contacts"
	"github.com/oshokin/still-alive/internal/service/escalation"
	"github.com/oshokin/still-alive/internal/service/ledger"
	"github.com/oshokin/still-alive/internal/service/notifier"
	"github.com/oshokin/still-alive/internal/service/trigger"
	"github.com/oshokin/still-alive/internal/version"
)

// Options controls the alive-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
}

// shutdownTimeout bounds the HTTP server drain.
const shutdownTimeout = 5 * time.Second

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the monitor and blocks until context is canceled or a component fails.
// Loads configuration first, restores persisted state, then serves gRPC, the
// optional HTTP status endpoint and the escalation trigger loop.
//
//nolint:funlen // Linear startup sequence.
func Run(ctx context.Context, opts *Options) (err error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alive-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	calendar, err := settings.CalendarLocation()
	if err != nil {
		return err
	}

	store, storeCloser, err := openStore(ctx, settings.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", settings.Store.Driver, err)
	}

	defer closeAll(&err, storeCloser)

	// Restore persisted history and contacts.
	checkIns := ledger.New(store, calendar)
	if err = checkIns.Load(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	registry := contacts.New(store)
	if err = registry.Load(ctx); err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}

	sender, err := buildSender(ctx, settings)
	if err != nil {
		return err
	}

	localNotifier, localCloser, err := buildLocal(ctx, settings.Local)
	if err != nil {
		return fmt.Errorf("local notifications: %w", err)
	}

	defer closeAll(&err, localCloser)

	alerts := notifier.New(registry, checkIns, sender,
		notifier.WithLocationProvider(buildLocation(settings.Location)),
		notifier.WithLocalNotifier(localNotifier),
		notifier.WithLocationTimeout(settings.LocationTimeout),
		notifier.WithFreeTier(settings.FreeTier),
	)

	scheduler := escalation.New(checkIns, alerts, localNotifier)
	scheduler.Restore(ctx, time.Now())

	svc := newService(checkIns, registry, scheduler)

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	api.RegisterLivenessServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Liveness server listening",
		"version", version.Short(),
		"listen_address", listenAddress,
		"store", settings.Store.Driver,
		"timezone", calendar.String(),
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return trigger.Run(groupCtx, scheduler, trigger.Options{PollInterval: settings.PollInterval})
	})

	group.Go(func() error {
		return serveGRPC(groupCtx, grpcServer, lis)
	})

	if settings.HTTPAddress != "" {
		httpServer := &http.Server{
			Addr:              settings.HTTPAddress,
			Handler:           status.NewHandler(svc),
			ReadHeaderTimeout: settings.Timeout,
		}

		group.Go(func() error {
			return serveHTTP(groupCtx, httpServer)
		})
	}

	return group.Wait()
}

// serveGRPC blocks until the server stops. GracefulStop runs once ctx ends.
func serveGRPC(ctx context.Context, grpcServer *grpc.Server, lis net.Listener) error {
	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// serveHTTP runs the status endpoint until ctx ends.
func serveHTTP(ctx context.Context, server *http.Server) error {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	logger.InfoKV(ctx, "HTTP status endpoint listening", "address", server.Addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

// closeAll appends close errors to *err.
func closeAll(err *error, closers ...io.Closer) {
	for _, c := range closers {
		*err = multierr.Append(*err, c.Close())
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Bind on all interfaces.
	return ":" + port, nil
}
