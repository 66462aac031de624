package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"stratus/pkg/logging"
)

const subsystem = "Coordinator"

// DefaultSilentTimeout bounds a single silent acquisition.
const DefaultSilentTimeout = 30 * time.Second

// DefaultInteractiveTimeout bounds how long the user has to finish signing in.
const DefaultInteractiveTimeout = 10 * time.Minute

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	// Client acquires tokens for the sign-in authority.
	Client CredentialClient

	// SignUpClient acquires tokens for the optional sign-up authority.
	SignUpClient CredentialClient

	// Anchors supplies the surface interactive sign-in is shown on.
	Anchors AnchorProvider

	// Scopes are requested on every acquisition, in order.
	Scopes []string

	// SilentTimeout bounds each silent attempt. Defaults to DefaultSilentTimeout.
	SilentTimeout time.Duration

	// InteractiveTimeout bounds each interactive attempt. Defaults to
	// DefaultInteractiveTimeout.
	InteractiveTimeout time.Duration
}

// Coordinator reconciles the session of a native host.
//
// Operations are serialized: SignIn, SignUp, UpdateFromCache and SignOut each hold
// opMu for their whole reset-then-populate sequence, and publish the resulting
// snapshot under mu when they finish.
type Coordinator struct {
	opMu sync.Mutex

	mu      sync.RWMutex
	session Session

	client             CredentialClient
	signUpClient       CredentialClient
	anchors            AnchorProvider
	scopes             []string
	silentTimeout      time.Duration
	interactiveTimeout time.Duration
}

// NewCoordinator validates cfg and creates a Coordinator with an empty session.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Client == nil {
		return nil, errors.New("credential client is required")
	}
	if cfg.Anchors == nil {
		return nil, errors.New("anchor provider is required")
	}
	if len(cfg.Scopes) == 0 {
		return nil, errors.New("at least one scope is required")
	}
	for i, scope := range cfg.Scopes {
		if strings.TrimSpace(scope) == "" {
			return nil, fmt.Errorf("scope %d is empty", i)
		}
	}

	silentTimeout := cfg.SilentTimeout
	if silentTimeout <= 0 {
		silentTimeout = DefaultSilentTimeout
	}
	interactiveTimeout := cfg.InteractiveTimeout
	if interactiveTimeout <= 0 {
		interactiveTimeout = DefaultInteractiveTimeout
	}

	return &Coordinator{
		client:             cfg.Client,
		signUpClient:       cfg.SignUpClient,
		anchors:            cfg.Anchors,
		scopes:             copyScopes(cfg.Scopes),
		silentTimeout:      silentTimeout,
		interactiveTimeout: interactiveTimeout,
	}, nil
}

// SignIn acquires a token silently with the first cached account and falls back
// to interactive acquisition when the client reports ErrInteractionRequired.
// Any other failure is returned and leaves the session empty.
func (c *Coordinator) SignIn(ctx context.Context) (Session, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	session, err := c.signIn(ctx)
	c.publish(session)
	if err != nil {
		logging.Debug(subsystem, "Sign-in failed: %v", err)
		return Session{}, err
	}

	if session.User != nil {
		logging.Info(subsystem, "Signed in as %s", session.User.DisplayName())
	}
	return session.clone(), nil
}

func (c *Coordinator) signIn(ctx context.Context) (Session, error) {
	account, err := c.firstAccount(ctx, c.client)
	if err != nil {
		return Session{}, err
	}

	result, err := c.acquireSilent(ctx, c.client, account)
	if err == nil {
		return sessionFrom(withAccount(result, account)), nil
	}
	if !IsInteractionRequired(err) {
		return Session{}, providerError("silent", err)
	}

	logging.Debug(subsystem, "Silent acquisition needs interaction, falling back to interactive sign-in")

	result, err = c.acquireInteractive(ctx, c.client)
	if err != nil {
		return Session{}, err
	}
	return sessionFrom(result), nil
}

// SignUp runs an interactive acquisition against the sign-up authority. Like
// every other operation it starts from the empty session.
func (c *Coordinator) SignUp(ctx context.Context) (Session, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.signUpClient == nil {
		c.publish(Session{})
		return Session{}, ErrSignUpNotConfigured
	}

	result, err := c.acquireInteractive(ctx, c.signUpClient)
	if err != nil {
		c.publish(Session{})
		return Session{}, err
	}

	session := sessionFrom(result)
	c.publish(session)
	return session.clone(), nil
}

// UpdateFromCache rebuilds the session from the credential cache. It never
// fails: expected conditions such as an empty cache are logged and yield the
// empty session.
func (c *Coordinator) UpdateFromCache(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.publish(c.refresh(ctx))
}

func (c *Coordinator) refresh(ctx context.Context) Session {
	account, err := c.firstAccount(ctx, c.client)
	if err != nil {
		logging.Warn(subsystem, "Could not list cached accounts: %v", err)
		return Session{}
	}
	if account.IsZero() {
		logging.Debug(subsystem, "No cached account")
		return Session{}
	}

	result, err := c.acquireSilent(ctx, c.client, account)
	if err != nil {
		if IsInteractionRequired(err) {
			logging.Debug(subsystem, "Cached token for %s needs interaction", account.DisplayName())
		} else {
			logging.Warn(subsystem, "Silent acquisition for %s failed: %v", account.DisplayName(), err)
		}
		return Session{}
	}

	return sessionFrom(withAccount(result, account))
}

// SignOut removes every cached account and then refreshes from the now empty
// cache. Removal continues past individual failures; the joined error is
// returned after the session has been refreshed.
func (c *Coordinator) SignOut(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var errs []error

	accounts, err := c.client.Accounts(ctx)
	if err != nil {
		errs = append(errs, providerError("accounts", err))
	}
	for _, account := range accounts {
		if err := c.client.RemoveAccount(ctx, account); err != nil {
			errs = append(errs, providerError("remove", fmt.Errorf("account %s: %w", account.DisplayName(), err)))
			continue
		}
		logging.Info(subsystem, "Removed cached account %s", account.DisplayName())
	}

	c.publish(c.refresh(ctx))
	return errors.Join(errs...)
}

// Session returns a copy of the last published session.
func (c *Coordinator) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.clone()
}

// AccessToken refreshes from the cache and returns the access token, or
// ErrNotAuthenticated when none is available.
func (c *Coordinator) AccessToken(ctx context.Context) (string, error) {
	c.UpdateFromCache(ctx)

	session := c.Session()
	if !session.IsAuthenticated {
		return "", ErrNotAuthenticated
	}
	return session.Token, nil
}

// Scopes returns a copy of the configured scopes.
func (c *Coordinator) Scopes() []string {
	return copyScopes(c.scopes)
}

func (c *Coordinator) publish(s Session) {
	s.derive()

	c.mu.Lock()
	c.session = s.clone()
	c.mu.Unlock()
}

func (c *Coordinator) firstAccount(ctx context.Context, client CredentialClient) (Account, error) {
	accounts, err := client.Accounts(ctx)
	if err != nil {
		return Account{}, providerError("accounts", err)
	}
	if len(accounts) == 0 {
		return Account{}, nil
	}
	return accounts[0], nil
}

func (c *Coordinator) acquireSilent(ctx context.Context, client CredentialClient, account Account) (Result, error) {
	if account.IsZero() {
		return Result{}, ErrInteractionRequired
	}

	ctx, cancel := context.WithTimeout(ctx, c.silentTimeout)
	defer cancel()

	return client.AcquireTokenSilent(ctx, c.Scopes(), account)
}

func (c *Coordinator) acquireInteractive(ctx context.Context, client CredentialClient) (Result, error) {
	anchor, err := c.anchors.CurrentAnchor()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrNoAnchor, err)
	}
	if anchor == nil {
		return Result{}, ErrNoAnchor
	}

	ctx, cancel := context.WithTimeout(ctx, c.interactiveTimeout)
	defer cancel()

	result, err := client.AcquireTokenInteractive(ctx, c.Scopes(), anchor)
	if err != nil {
		return Result{}, providerError("interactive", err)
	}
	return result, nil
}

// withAccount fills in the account a silent result was requested for when the
// provider did not echo it back.
func withAccount(result Result, account Account) Result {
	if result.Account.IsZero() {
		result.Account = account
	}
	return result
}

var _ Service = (*Coordinator)(nil)
