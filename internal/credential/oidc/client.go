// Package oidc is an auth.CredentialClient for any OpenID Connect issuer.
//
// Interactive sign-in runs the authorization code flow with PKCE against a
// single-shot loopback callback server. Tokens and account details live in an
// account cache that is loaded and stored through Hooks before and after every
// access, the same way the MSAL client persists its cache.
package oidc

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"stratus/internal/auth"
	"stratus/pkg/logging"
)

const subsystem = "OIDC"

// DefaultHTTPTimeout bounds every request to the issuer.
const DefaultHTTPTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// Issuer is the OpenID Connect issuer URL, used verbatim for discovery.
	Issuer string

	// ClientID identifies this public client at the issuer.
	ClientID string

	// RedirectPort is the loopback port for the callback server. 0 picks a
	// free port, which the issuer must allow for loopback redirect URIs.
	RedirectPort int

	// Hooks persist the account cache.
	Hooks Hooks

	// HTTPClient overrides the client used to reach the issuer.
	HTTPClient *http.Client
}

// Client implements auth.CredentialClient for an OpenID Connect issuer.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time

	discoverMu sync.Mutex
	provider   *oidc.Provider

	// cacheMu serializes load-modify-save cycles on the account cache.
	cacheMu sync.Mutex
}

// New validates cfg and creates a Client. Discovery happens on first use.
func New(cfg Config) (*Client, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.Hooks == nil {
		return nil, errors.New("cache hooks are required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	return &Client{cfg: cfg, httpClient: httpClient, now: time.Now}, nil
}

// Accounts lists cached accounts, most recently used first.
func (c *Client) Accounts(ctx context.Context) ([]auth.Account, error) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	cache := load(ctx, c.cfg.Hooks)
	entries := cache.sorted()

	accounts := make([]auth.Account, 0, len(entries))
	for _, e := range entries {
		accounts = append(accounts, e.Account)
	}
	return accounts, nil
}

// AcquireTokenSilent returns the cached access token for account or redeems its
// refresh token. It returns auth.ErrInteractionRequired when neither works.
func (c *Client) AcquireTokenSilent(ctx context.Context, scopes []string, account auth.Account) (auth.Result, error) {
	if account.IsZero() {
		return auth.Result{}, auth.ErrInteractionRequired
	}

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	cache := load(ctx, c.cfg.Hooks)
	entry, ok := cache.Accounts[account.ID]
	if !ok {
		return auth.Result{}, fmt.Errorf("account %s is not cached: %w", account.DisplayName(), auth.ErrInteractionRequired)
	}

	if entry.validFor(scopes, c.now()) {
		return entry.result(), nil
	}
	if entry.RefreshToken == "" {
		return auth.Result{}, fmt.Errorf("no refresh token for %s: %w", account.DisplayName(), auth.ErrInteractionRequired)
	}

	provider, err := c.discover(ctx)
	if err != nil {
		return auth.Result{}, err
	}

	ctx = c.clientContext(ctx)
	token, err := c.oauthConfig(provider, scopes, "").TokenSource(ctx, &oauth2.Token{RefreshToken: entry.RefreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil && retrieveErr.Response.StatusCode < http.StatusInternalServerError {
			return auth.Result{}, fmt.Errorf("%w: refresh rejected: %v", auth.ErrInteractionRequired, err)
		}
		return auth.Result{}, fmt.Errorf("refresh failed: %w", err)
	}

	c.apply(entry, token, scopes)
	cache.save(ctx, c.cfg.Hooks)

	logging.Debug(subsystem, "Refreshed access token for %s", account.DisplayName())
	return entry.result(), nil
}

// AcquireTokenInteractive runs the authorization code flow with PKCE. The
// sign-in page is presented through anchor; the response arrives on a loopback
// callback server.
func (c *Client) AcquireTokenInteractive(ctx context.Context, scopes []string, anchor auth.Anchor) (auth.Result, error) {
	if anchor == nil {
		return auth.Result{}, auth.ErrNoAnchor
	}

	provider, err := c.discover(ctx)
	if err != nil {
		return auth.Result{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := NewCallbackServer(c.cfg.RedirectPort)
	redirectURI, err := server.Start(ctx)
	if err != nil {
		return auth.Result{}, err
	}
	defer server.Stop()

	oauthCfg := c.oauthConfig(provider, withOpenID(scopes), redirectURI)
	verifier := oauth2.GenerateVerifier()
	state := rand.Text()
	nonce := rand.Text()

	authURL := oauthCfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier), oidc.Nonce(nonce))
	if err := anchor.OpenURL(authURL); err != nil {
		return auth.Result{}, fmt.Errorf("failed to present sign-in page: %w", err)
	}

	result, err := server.WaitForCallback(ctx)
	if err != nil {
		return auth.Result{}, fmt.Errorf("callback failed: %w", err)
	}

	// State check guards against cross-site request forgery.
	if subtle.ConstantTimeCompare([]byte(result.State), []byte(state)) != 1 {
		logging.Warn(subsystem, "OAuth state mismatch (expected %d chars, got %d)", len(state), len(result.State))
		return auth.Result{}, errors.New("state mismatch - possible CSRF attack")
	}
	if result.IsError() {
		if result.ErrorDescription != "" {
			return auth.Result{}, fmt.Errorf("authorization failed: %s - %s", result.Error, result.ErrorDescription)
		}
		return auth.Result{}, fmt.Errorf("authorization failed: %s", result.Error)
	}

	ctx = c.clientContext(ctx)
	token, err := oauthCfg.Exchange(ctx, result.Code, oauth2.VerifierOption(verifier))
	if err != nil {
		return auth.Result{}, fmt.Errorf("token exchange failed: %w", err)
	}

	account, err := c.verifyIDToken(ctx, provider, token, nonce)
	if err != nil {
		return auth.Result{}, err
	}

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	cache := load(ctx, c.cfg.Hooks)
	entry := &cacheEntry{Account: account}
	c.apply(entry, token, scopes)
	cache.Accounts[account.ID] = entry
	cache.save(ctx, c.cfg.Hooks)

	logging.Info(subsystem, "Interactive sign-in completed for %s", account.DisplayName())
	return entry.result(), nil
}

// RemoveAccount drops account and its tokens from the cache.
func (c *Client) RemoveAccount(ctx context.Context, account auth.Account) error {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	cache := load(ctx, c.cfg.Hooks)
	if _, ok := cache.Accounts[account.ID]; !ok {
		return nil
	}
	delete(cache.Accounts, account.ID)
	cache.save(ctx, c.cfg.Hooks)
	return nil
}

// discover fetches the issuer's metadata once.
func (c *Client) discover(ctx context.Context) (*oidc.Provider, error) {
	c.discoverMu.Lock()
	defer c.discoverMu.Unlock()

	if c.provider != nil {
		return c.provider, nil
	}

	// The provider keeps this context for later key set refreshes.
	discoveryCtx := oidc.ClientContext(context.WithoutCancel(ctx), c.httpClient)
	provider, err := oidc.NewProvider(discoveryCtx, c.cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OpenID configuration for %s: %w", c.cfg.Issuer, err)
	}

	c.provider = provider
	return provider, nil
}

func (c *Client) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *Client) oauthConfig(provider *oidc.Provider, scopes []string, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    c.cfg.ClientID,
		Endpoint:    provider.Endpoint(),
		RedirectURL: redirectURI,
		Scopes:      slices.Clone(scopes),
	}
}

// idTokenClaims covers the claims Entra, B2C and generic issuers use for the
// user's name.
type idTokenClaims struct {
	Subject           string   `json:"sub"`
	PreferredUsername string   `json:"preferred_username"`
	Email             string   `json:"email"`
	Emails            []string `json:"emails"`
	Name              string   `json:"name"`
	ObjectID          string   `json:"oid"`
	TenantID          string   `json:"tid"`
	Nonce             string   `json:"nonce"`
}

func (c *Client) verifyIDToken(ctx context.Context, provider *oidc.Provider, token *oauth2.Token, nonce string) (auth.Account, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return auth.Account{}, errors.New("no ID token in token response")
	}

	idToken, err := provider.Verifier(&oidc.Config{ClientID: c.cfg.ClientID, Now: c.now}).Verify(ctx, rawIDToken)
	if err != nil {
		return auth.Account{}, fmt.Errorf("ID token verification failed: %w", err)
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return auth.Account{}, fmt.Errorf("failed to extract claims: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(claims.Nonce), []byte(nonce)) != 1 {
		return auth.Account{}, errors.New("ID token nonce mismatch")
	}

	return accountFromClaims(idToken.Issuer, claims), nil
}

func accountFromClaims(issuer string, claims idTokenClaims) auth.Account {
	account := auth.Account{
		ID:   claims.Subject,
		Name: claims.Name,
	}

	switch {
	case claims.PreferredUsername != "":
		account.Username = claims.PreferredUsername
	case claims.Email != "":
		account.Username = claims.Email
	case len(claims.Emails) > 0:
		account.Username = claims.Emails[0]
	}

	if u, err := url.Parse(issuer); err == nil {
		account.Environment = u.Host
	}

	extra := map[string]string{}
	if claims.ObjectID != "" {
		extra["oid"] = claims.ObjectID
	}
	if claims.TenantID != "" {
		extra["tid"] = claims.TenantID
	}
	if len(extra) > 0 {
		account.Claims = extra
	}
	return account
}

// apply copies a token response into entry.
func (c *Client) apply(entry *cacheEntry, token *oauth2.Token, requested []string) {
	entry.AccessToken = token.AccessToken
	entry.Expiry = token.Expiry
	if token.RefreshToken != "" {
		entry.RefreshToken = token.RefreshToken
	}
	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		entry.IDToken = raw
	}

	entry.Scopes = cachedScopes(token, requested)
	entry.LastUsed = c.now()
}

// cachedScopes records the scopes the token was requested for. Issuers may
// echo scopes in a shortened form, so the response's scope parameter is only
// used when nothing was requested.
func cachedScopes(token *oauth2.Token, requested []string) []string {
	if len(requested) > 0 {
		return slices.Clone(requested)
	}
	if granted, ok := token.Extra("scope").(string); ok {
		return strings.Fields(granted)
	}
	return nil
}

func withOpenID(scopes []string) []string {
	if slices.Contains(scopes, oidc.ScopeOpenID) {
		return slices.Clone(scopes)
	}
	return append([]string{oidc.ScopeOpenID}, scopes...)
}

var _ auth.CredentialClient = (*Client)(nil)
