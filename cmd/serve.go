package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// serveCmd defines the serve command structure.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the weather API",
	Long: `Starts the weather API on server.listen_address.

Endpoints:
  GET /WeatherForecast   five day forecast (bearer token with server.required_scope)
  GET /healthz           liveness
  GET /metrics           Prometheus metrics

With server.require_auth (the default) tokens are verified against
server.issuer and server.audience. The server shuts down gracefully on
SIGINT or SIGTERM and notifies systemd when run as a notify service.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.Serve(ctx, func(addr net.Addr) {
		fmt.Fprintf(cmd.OutOrStdout(), "Weather API listening on http://%s\n", addr)
	})
}
