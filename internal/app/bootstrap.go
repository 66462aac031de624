package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"stratus/internal/config"
	"stratus/pkg/logging"
)

// Application loads configuration once and builds what a command needs from it.
//
// Example usage:
//
//	application, err := app.NewApplication(app.NewConfig(configPath, "", false))
//	if err != nil {
//	    return err
//	}
//	services, err := application.ClientServices(ctx, os.Stderr)
type Application struct {
	config *Config
}

// NewApplication loads the configuration from cfg.ConfigPath and initializes
// logging. The log level comes from cfg.LogLevel, then log_level.
func NewApplication(cfg *Config) (*Application, error) {
	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}

	// Logging is needed while the configuration loads; it is reset below
	// once log_level is known.
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.InitForCLI(level, logOutput)

	settings, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from path: %s", cfg.ConfigPath)
		return nil, fmt.Errorf("failed to load configuration from path %s: %w", cfg.ConfigPath, err)
	}

	if cfg.LogLevel == "" && settings.LogLevel != "" {
		level, err = logging.ParseLevel(settings.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log_level: %w", err)
		}
		logging.InitForCLI(level, logOutput)
	}
	logging.Debug("Bootstrap", "Loaded configuration from %s", cfg.ConfigPath)

	cfg.Settings = &settings
	return &Application{config: cfg}, nil
}

// Settings returns the loaded configuration.
func (a *Application) Settings() config.Config {
	return *a.config.Settings
}

// ClientServices validates the client settings and wires the token cache,
// credential clients and coordinator. Console sign-in prompts go to anchorOut.
// Callers must Close the returned Services.
func (a *Application) ClientServices(ctx context.Context, anchorOut io.Writer) (*Services, error) {
	settings := a.Settings()
	if err := settings.ValidateClient(); err != nil {
		return nil, err
	}

	services, err := InitializeServices(ctx, settings, a.config.NoBrowser, anchorOut)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return services, nil
}

// Serve validates the server settings and runs the weather API until ctx is
// cancelled. ready is called with the bound address once it accepts requests.
func (a *Application) Serve(ctx context.Context, ready func(net.Addr)) error {
	settings := a.Settings()
	if err := settings.ValidateServer(); err != nil {
		return err
	}
	return runServer(ctx, settings.Server, ready)
}
