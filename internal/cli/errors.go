package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorTLS indicates a TLS/certificate verification error.
	ConnectionErrorTLS
	// ConnectionErrorNetwork indicates a network connectivity error (e.g., refused, unreachable).
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError indicates a connection failure to an endpoint.
// It wraps the underlying error and provides categorization for better user feedback.
type ConnectionError struct {
	// Endpoint is the URL that could not be reached.
	Endpoint string
	// Type categorizes the connection error.
	Type ConnectionErrorType
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with guidance for the error type.
func (e *ConnectionError) Error() string {
	reason := FormatConnectionErrorReason(e.Reason)
	switch e.Type {
	case ConnectionErrorTLS:
		return fmt.Sprintf(`TLS certificate verification failed for %s: %s

Self-signed or private CA certificates must be trusted by the system
certificate store before stratus can connect.`, e.Endpoint, reason)
	case ConnectionErrorNetwork:
		return fmt.Sprintf(`Connection failed to %s: %s

Possible causes:
  - Server is not running (start it with: stratus serve)
  - The weather API URL is wrong (check STRATUS_WEATHER_API_URL)`, e.Endpoint, reason)
	case ConnectionErrorTimeout:
		return fmt.Sprintf("Connection to %s timed out: %s", e.Endpoint, reason)
	case ConnectionErrorDNS:
		return fmt.Sprintf("DNS resolution failed for %s: %s", e.Endpoint, reason)
	default:
		return fmt.Sprintf("Connection failed to %s: %s", e.Endpoint, reason)
	}
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *ConnectionError) Is(target error) bool {
	_, ok := target.(*ConnectionError)
	return ok
}

// ClassifyConnectionError analyzes an error and returns a ConnectionError with the appropriate type.
// If the error is nil, returns nil.
func ClassifyConnectionError(err error, endpoint string) *ConnectionError {
	if err == nil {
		return nil
	}

	// Check for TLS/certificate errors
	if isTLSError(err) {
		return &ConnectionError{
			Endpoint: endpoint,
			Type:     ConnectionErrorTLS,
			Reason:   err,
		}
	}

	// Check for DNS errors
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ConnectionError{
			Endpoint: endpoint,
			Type:     ConnectionErrorDNS,
			Reason:   err,
		}
	}

	// Check for timeout errors
	if isTimeoutError(err) {
		return &ConnectionError{
			Endpoint: endpoint,
			Type:     ConnectionErrorTimeout,
			Reason:   err,
		}
	}

	// Check for network errors (connection refused, unreachable, etc.)
	if isNetworkError(err.Error()) {
		return &ConnectionError{
			Endpoint: endpoint,
			Type:     ConnectionErrorNetwork,
			Reason:   err,
		}
	}

	// Default to unknown connection error
	return &ConnectionError{
		Endpoint: endpoint,
		Type:     ConnectionErrorUnknown,
		Reason:   err,
	}
}

// isTLSError checks if the error is related to TLS/certificate issues.
func isTLSError(err error) bool {
	if err == nil {
		return false
	}

	// Check for x509 certificate errors using errors.As
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	var systemRootsErr *x509.SystemRootsError

	if errors.As(err, &certErr) || errors.As(err, &hostErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &systemRootsErr) {
		return true
	}

	// Also check error message for TLS-related keywords
	// Note: "certificate" is checked broadly as it covers most TLS-related error messages
	errStr := err.Error()
	tlsKeywords := []string{
		"x509:",
		"certificate",
		"tls:",
		"TLS handshake",
	}

	for _, keyword := range tlsKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// isTimeoutError checks if the error is a timeout.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	// Check for net.Error timeout (interface, needs manual unwrapping)
	for e := err; e != nil; {
		if ne, ok := e.(net.Error); ok && ne.Timeout() {
			return true
		}
		if u, ok := e.(interface{ Unwrap() error }); ok {
			e = u.Unwrap()
		} else {
			break
		}
	}

	// Check for url.Error timeout
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	// Check error message
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// isNetworkError checks if the error string indicates a network connectivity issue.
func isNetworkError(errStr string) bool {
	networkKeywords := []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	}

	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// AuthRequiredError indicates no usable session exists for a protected call.
// Implements error with actionable guidance.
type AuthRequiredError struct {
	// Endpoint is the URL that requires authentication.
	Endpoint string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`Authentication required for %s

To sign in, run:
  stratus login

To check current authentication status:
  stratus status`, e.Endpoint)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthFailedError indicates sign-in or a protected call failed after a token
// was presented.
type AuthFailedError struct {
	// Endpoint is the URL where authentication failed.
	Endpoint string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`Authentication failed for %s: %v

To retry, run:
  stratus login`, e.Endpoint, e.Reason)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}

// SignInRedirectedError indicates sign-in continues in a browser the CLI does
// not control. The command should exit and let the user finish there.
type SignInRedirectedError struct {
	// LoginURL is where the user was sent, if known.
	LoginURL string
}

// Error returns a user-friendly error message.
func (e *SignInRedirectedError) Error() string {
	if e.LoginURL == "" {
		return "Sign-in was redirected. Finish signing in, then run: stratus status"
	}
	return fmt.Sprintf(`Sign-in was redirected to %s

Finish signing in there, then run:
  stratus status`, e.LoginURL)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *SignInRedirectedError) Is(target error) bool {
	_, ok := target.(*SignInRedirectedError)
	return ok
}

// FormatConnectionErrorReason extracts a concise reason from a connection error.
// It removes verbose prefixes and presents the core issue.
func FormatConnectionErrorReason(err error) string {
	if err == nil {
		return "unknown error"
	}

	errStr := err.Error()

	// TLS errors often have verbose prefixes like "Get https://...: x509: ..."
	if idx := strings.Index(errStr, "x509:"); idx != -1 {
		return strings.TrimSpace(errStr[idx:])
	}

	if idx := strings.Index(errStr, "connect:"); idx != -1 {
		return strings.TrimSpace(errStr[idx:])
	}

	if colonIdx := strings.LastIndex(errStr, ":"); strings.Contains(errStr, "dial tcp") && colonIdx != -1 {
		return strings.TrimSpace(errStr[colonIdx+1:])
	}

	return errStr
}
