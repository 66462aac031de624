package cmd

import (
	"context"
	"errors"
	"os"

	"stratus/internal/app"
	"stratus/internal/cli"
	"stratus/internal/config"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates no usable session exists, or sign-in has to
	// be finished elsewhere.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates sign-in or an authenticated call failed.
	ExitCodeAuthFailed = 3
)

// Global flags
var (
	configPath string
	logLevel   string
	noBrowser  bool
)

// rootCmd represents the base command for the stratus application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stratus",
	Short: "Sign in to Microsoft Entra ID and call the weather API",
	Long: `stratus signs you in with Microsoft Entra ID, Entra External ID, Azure AD B2C
or any OpenID Connect issuer, keeps the session in a local token cache, and
calls the weather forecast API with the resulting access token.

It can also run the weather API itself (stratus serve).`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "stratus version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var redirected *cli.SignInRedirectedError
	if errors.As(err, &redirected) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

// newApplication loads the configuration selected by the global flags.
func newApplication() (*app.Application, error) {
	return app.NewApplication(app.NewConfig(configPath, logLevel, noBrowser))
}

// clientServices builds the signed-in services for cmd. Tests replace it.
var clientServices = func(cmd *cobra.Command) (*app.Services, error) {
	application, err := newApplication()
	if err != nil {
		return nil, err
	}
	return application.ClientServices(commandContext(cmd), cmd.ErrOrStderr())
}

// commandContext returns cmd's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Directory holding config.yaml and .env")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides log_level")
	rootCmd.PersistentFlags().BoolVar(&noBrowser, "no-browser", false, "Print the sign-in URL instead of opening a browser")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(serveCmd)
}
