package app

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"stratus/internal/config"
	"stratus/internal/weatherapi"
	"stratus/pkg/logging"
)

// sdNotify is replaced in tests.
var sdNotify = daemon.SdNotify

// runServer runs the weather API until ctx is cancelled.
//
// Behavior:
//   - Builds an OIDC verifier for server.issuer when server.require_auth is set
//   - Listens on server.listen_address and serves until ctx is done
//   - Reports READY=1 and STOPPING=1 to systemd when NOTIFY_SOCKET is set
//   - Sends watchdog keep-alives while WATCHDOG_USEC is set
func runServer(ctx context.Context, cfg config.ServerConfig, ready func(net.Addr)) error {
	apiCfg := weatherapi.Config{
		RequiredPermission: cfg.RequiredScope,
		ShutdownTimeout:    cfg.ShutdownTimeout,
	}
	if cfg.RequireAuth {
		verifier, err := weatherapi.NewOIDCVerifier(ctx, cfg.Issuer, cfg.Audience, nil)
		if err != nil {
			return fmt.Errorf("failed to set up token verification: %w", err)
		}
		apiCfg.Verifier = verifier
	}
	server := weatherapi.New(apiCfg)

	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddress, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	serving, stopWatchdog := context.WithCancel(gctx)

	g.Go(func() error {
		defer stopWatchdog()
		err := server.Serve(gctx, ln, func() {
			notifySystemd(daemon.SdNotifyReady)
			if ready != nil {
				ready(ln.Addr())
			}
		})
		notifySystemd(daemon.SdNotifyStopping)
		return err
	})
	g.Go(func() error {
		runWatchdog(serving)
		return nil
	})

	return g.Wait()
}

func notifySystemd(state string) {
	sent, err := sdNotify(false, state)
	if err != nil {
		logging.Warn("Server", "systemd notification %q failed: %v", state, err)
		return
	}
	if sent {
		logging.Debug("Server", "Sent %q to systemd", state)
	}
}

// runWatchdog pings the systemd watchdog at half its interval until ctx is done.
func runWatchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logging.Warn("Server", "Invalid systemd watchdog settings: %v", err)
		return
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			notifySystemd(daemon.SdNotifyWatchdog)
		}
	}
}
