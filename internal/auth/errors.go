package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInteractionRequired is returned by a CredentialClient when silent
	// acquisition needs the user (no cached token, consent required, expired
	// refresh token). It is the only error the Coordinator recovers from.
	ErrInteractionRequired = errors.New("interaction required")

	// ErrNoAnchor is returned when the host cannot supply a surface for
	// interactive sign-in.
	ErrNoAnchor = errors.New("no anchor available for interactive sign-in")

	// ErrNotAuthenticated is returned by AccessToken when no usable token exists.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSignUpNotConfigured is returned by SignUp without a sign-up authority.
	ErrSignUpNotConfigured = errors.New("sign-up authority not configured")
)

// ProviderError wraps a fatal failure reported by the identity provider.
type ProviderError struct {
	// Op is the acquisition step that failed ("accounts", "silent", "interactive", "remove").
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// RedirectError tells a web host that sign-in continues through a redirect.
type RedirectError struct {
	LoginURL string
}

// Error implements the error interface.
func (e *RedirectError) Error() string {
	if e.LoginURL == "" {
		return "sign-in has been redirected; wait for the authentication state to update"
	}
	return "sign-in has been redirected to " + e.LoginURL
}

// IsInteractionRequired reports whether err signals that silent acquisition
// needs user interaction.
func IsInteractionRequired(err error) bool {
	return errors.Is(err, ErrInteractionRequired)
}

func providerError(op string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Op: op, Err: err}
}
