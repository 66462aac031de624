package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"stratus/pkg/logging"
	stringsx "stratus/pkg/strings"
)

const subsystem = "Weather"

// ForecastPath is the forecast endpoint relative to the API base URL.
const ForecastPath = "/WeatherForecast"

// DefaultTimeout bounds a forecast request when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// maxErrorText caps the body shown in StatusError.Error.
const maxErrorText = 200

// ErrUnauthorized is returned when the API rejects the bearer token.
var ErrUnauthorized = errors.New("weather API rejected the access token")

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("weather API returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("weather API returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), stringsx.Truncate(e.Body, maxErrorText))
}

// TokenSource supplies the bearer token for each request.
// auth.Coordinator implements it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. https://localhost:7043.
	BaseURL string

	// Tokens supplies the bearer token. Nil sends unauthenticated requests.
	Tokens TokenSource

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Client calls the weather API.
type Client struct {
	endpoint string
	tokens   TokenSource
	http     *http.Client
}

// NewClient validates cfg and creates a Client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid weather API URL %q", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		endpoint: strings.TrimSuffix(base.String(), "/") + ForecastPath,
		tokens:   cfg.Tokens,
		http:     hc,
	}, nil
}

// Endpoint returns the forecast URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Forecast fetches the forecast. Token errors are returned unchanged so the
// caller can tell "not signed in" from a failed call.
func (c *Client) Forecast(ctx context.Context) ([]Forecast, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	logging.Debug(subsystem, "GET %s (request %s)", c.endpoint, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request forecast: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		logging.Debug(subsystem, "Request %s rejected with %d", requestID, resp.StatusCode)
		return nil, authErrorFrom(resp)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var forecasts []Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecasts); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	logging.Debug(subsystem, "Request %s returned %d forecasts", requestID, len(forecasts))
	return forecasts, nil
}
