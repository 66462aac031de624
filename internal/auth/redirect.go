package auth

import (
	"context"
	"sync"

	"stratus/pkg/logging"
)

// RedirectService is the Service for hosts where sign-in is a browser redirect
// owned by the surrounding web framework. It holds no credential cache, so its
// session is always empty; SignIn only reports where the user was sent.
type RedirectService struct {
	loginURL  string
	logoutURL string

	mu      sync.RWMutex
	session Session
}

// NewRedirectService creates a RedirectService. loginURL is reported in the
// RedirectError returned from SignIn; logoutURL is only logged.
func NewRedirectService(loginURL, logoutURL string) *RedirectService {
	return &RedirectService{
		loginURL:  loginURL,
		logoutURL: logoutURL,
	}
}

// SignIn resets the session and returns a RedirectError.
func (s *RedirectService) SignIn(ctx context.Context) (Session, error) {
	s.reset()
	logging.Debug(subsystem, "Sign-in redirected to %s", s.loginURL)
	return Session{}, &RedirectError{LoginURL: s.loginURL}
}

// UpdateFromCache resets the session; a redirect host has no local cache.
func (s *RedirectService) UpdateFromCache(ctx context.Context) {
	s.reset()
}

// SignOut resets the session.
func (s *RedirectService) SignOut(ctx context.Context) error {
	s.reset()
	if s.logoutURL != "" {
		logging.Debug(subsystem, "Sign-out continues at %s", s.logoutURL)
	}
	return nil
}

// SignUp behaves like SignIn; the sign-up page is reached from the login page.
func (s *RedirectService) SignUp(ctx context.Context) (Session, error) {
	return s.SignIn(ctx)
}

// AccessToken always fails: tokens stay with the web host.
func (s *RedirectService) AccessToken(ctx context.Context) (string, error) {
	return "", ErrNotAuthenticated
}

// Scopes returns nil; a redirect host requests no scopes of its own.
func (s *RedirectService) Scopes() []string {
	return nil
}

// Session returns the (always empty) session.
func (s *RedirectService) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.clone()
}

// LoginURL returns the URL sign-in is redirected to.
func (s *RedirectService) LoginURL() string {
	return s.loginURL
}

func (s *RedirectService) reset() {
	s.mu.Lock()
	s.session = Session{}
	s.mu.Unlock()
}

var _ Service = (*RedirectService)(nil)
