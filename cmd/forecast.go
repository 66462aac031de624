package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"stratus/internal/auth"
	"stratus/internal/cli"
	"stratus/internal/weather"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// Forecast-specific flags
var (
	forecastLogin bool
	forecastFlags cli.CommandFlags
)

// forecastCmd represents the forecast command
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Fetch the weather forecast with the cached access token",
	Long: `Call the weather API (weather_api.base_url) with the cached access token.

Without a usable token the command fails with exit code 2; run stratus login
first or pass --login to sign in when needed.

Examples:
  stratus forecast              # Print the five day forecast
  stratus forecast --login      # Sign in first if there is no usable token
  stratus forecast -o json      # Machine-readable output`,
	Args: cobra.NoArgs,
	RunE: runForecast,
}

func init() {
	forecastCmd.Flags().BoolVar(&forecastLogin, "login", false, "Sign in first when no usable token is cached")
	cli.RegisterOutputFlags(forecastCmd, &forecastFlags)
}

func runForecast(cmd *cobra.Command, args []string) error {
	printer, err := forecastFlags.Printer(cmd)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	services, err := clientServices(cmd)
	if err != nil {
		return err
	}
	defer services.Close()

	client, err := weather.NewClient(weather.Config{
		BaseURL: services.Settings.WeatherAPI.BaseURL,
		Tokens:  services.Auth,
		Timeout: services.Settings.WeatherAPI.Timeout,
	})
	if err != nil {
		return err
	}

	if forecastLogin {
		services.Auth.UpdateFromCache(ctx)
		if !services.Auth.Session().IsAuthenticated {
			if _, err := signIn(ctx, services, false, forecastFlags.Quiet); err != nil {
				return err
			}
		}
	}

	progress := cli.StartProgress(" Fetching forecast...", forecastFlags.Quiet)
	forecasts, err := client.Forecast(ctx)
	progress.Stop()
	if err != nil {
		return forecastError(err, client.Endpoint())
	}

	return printer.Print(forecasts, func(tw *cli.PlainTableWriter) {
		tw.SetHeaders([]string{"DATE", "TEMP. (C)", "TEMP. (F)", "SUMMARY"})
		tw.SetColumnAlign(1, text.AlignRight)
		tw.SetColumnAlign(2, text.AlignRight)
		for _, f := range forecasts {
			tw.AppendRow([]string{f.Date, strconv.Itoa(f.TemperatureC), strconv.Itoa(f.TemperatureF), f.Summary})
		}
	})
}

// forecastError converts a failed forecast call into the error the CLI reports.
func forecastError(err error, endpoint string) error {
	var (
		statusErr *weather.StatusError
		urlErr    *url.Error
	)
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		return &cli.AuthRequiredError{Endpoint: endpoint}
	case errors.Is(err, weather.ErrUnauthorized):
		return &cli.AuthFailedError{Endpoint: endpoint, Reason: err}
	case errors.As(err, &statusErr):
		return fmt.Errorf("weather API at %s failed: %w", endpoint, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.As(err, &urlErr):
		return cli.ClassifyConnectionError(err, endpoint)
	default:
		return err
	}
}
