// Package msal adapts the Microsoft Authentication Library public client to
// auth.CredentialClient for Entra ID, Entra External ID and Azure AD B2C.
package msal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"
	msalerrors "github.com/AzureAD/microsoft-authentication-library-for-go/apps/errors"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"

	"stratus/internal/auth"
	"stratus/pkg/logging"
)

const subsystem = "MSAL"

// DefaultRedirectURI lets MSAL pick a free loopback port.
const DefaultRedirectURI = "http://localhost"

// publicClient is the part of public.Client the adapter uses.
type publicClient interface {
	Accounts(ctx context.Context) ([]public.Account, error)
	AcquireTokenSilent(ctx context.Context, scopes []string, opts ...public.AcquireSilentOption) (public.AuthResult, error)
	AcquireTokenInteractive(ctx context.Context, scopes []string, opts ...public.AcquireInteractiveOption) (public.AuthResult, error)
	RemoveAccount(ctx context.Context, account public.Account) error
}

// Config configures a Client.
type Config struct {
	// ClientID is the application (client) ID of the public client registration.
	ClientID string

	// Authority is used verbatim, e.g.
	// https://contoso.b2clogin.com/tfp/contoso.onmicrosoft.com/B2C_1_susi.
	Authority string

	// RedirectURI must be a loopback URI registered for the application.
	RedirectURI string

	// InstanceDiscovery enables Entra instance discovery. B2C and CIAM
	// authorities need it disabled.
	InstanceDiscovery bool

	// Cache persists the serialized token cache.
	Cache cache.ExportReplace

	// HTTPClient overrides the transport used to reach the authority.
	HTTPClient *http.Client
}

// Client implements auth.CredentialClient on top of public.Client.
type Client struct {
	pc          publicClient
	redirectURI string
	authority   string
}

// New creates a Client for cfg.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.Authority == "" {
		return nil, errors.New("authority is required")
	}

	opts := []public.Option{
		public.WithAuthority(cfg.Authority),
		public.WithInstanceDiscovery(cfg.InstanceDiscovery),
	}
	if cfg.Cache != nil {
		opts = append(opts, public.WithCache(cfg.Cache))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, public.WithHTTPClient(cfg.HTTPClient))
	}

	pc, err := public.New(cfg.ClientID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create public client for %s: %w", cfg.Authority, err)
	}

	return newClient(pc, cfg), nil
}

func newClient(pc publicClient, cfg Config) *Client {
	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}
	return &Client{pc: pc, redirectURI: redirectURI, authority: cfg.Authority}
}

// Accounts lists the accounts in the token cache.
func (c *Client) Accounts(ctx context.Context) ([]auth.Account, error) {
	accounts, err := c.pc.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]auth.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccount(a))
	}
	return out, nil
}

// AcquireTokenSilent redeems the cache for account.
func (c *Client) AcquireTokenSilent(ctx context.Context, scopes []string, account auth.Account) (auth.Result, error) {
	if account.IsZero() {
		return auth.Result{}, auth.ErrInteractionRequired
	}

	msalAccount, found, err := c.lookup(ctx, account.ID)
	if err != nil {
		return auth.Result{}, err
	}
	if !found {
		return auth.Result{}, fmt.Errorf("account %s is no longer cached: %w", account.DisplayName(), auth.ErrInteractionRequired)
	}

	res, err := c.pc.AcquireTokenSilent(ctx, scopes, public.WithSilentAccount(msalAccount))
	if err != nil {
		return auth.Result{}, classifySilent(err)
	}
	return toResult(res), nil
}

// AcquireTokenInteractive runs the authorization code flow on a loopback
// redirect, presenting the sign-in page through anchor.
func (c *Client) AcquireTokenInteractive(ctx context.Context, scopes []string, anchor auth.Anchor) (auth.Result, error) {
	if anchor == nil {
		return auth.Result{}, auth.ErrNoAnchor
	}

	logging.Debug(subsystem, "Starting interactive sign-in against %s", c.authority)

	res, err := c.pc.AcquireTokenInteractive(ctx, scopes,
		public.WithRedirectURI(c.redirectURI),
		public.WithOpenURL(anchor.OpenURL),
	)
	if err != nil {
		return auth.Result{}, err
	}
	return toResult(res), nil
}

// RemoveAccount removes account and its tokens from the cache.
func (c *Client) RemoveAccount(ctx context.Context, account auth.Account) error {
	msalAccount, found, err := c.lookup(ctx, account.ID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return c.pc.RemoveAccount(ctx, msalAccount)
}

func (c *Client) lookup(ctx context.Context, homeAccountID string) (public.Account, bool, error) {
	accounts, err := c.pc.Accounts(ctx)
	if err != nil {
		return public.Account{}, false, err
	}
	for _, a := range accounts {
		if a.HomeAccountID == homeAccountID {
			return a, true, nil
		}
	}
	return public.Account{}, false, nil
}

// Messages MSAL returns when the cache holds nothing it can redeem silently.
var cacheMissMessages = []string{
	"no token found",
	"no account was specified",
}

// classifySilent maps silent failures the user can fix by signing in again to
// auth.ErrInteractionRequired: cache misses and 4xx token responses such as
// invalid_grant. Transport failures, server errors and cancellation stay fatal.
func classifySilent(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return err
	}

	var callErr msalerrors.CallErr
	if errors.As(err, &callErr) {
		if callErr.Resp != nil && callErr.Resp.StatusCode >= 400 && callErr.Resp.StatusCode < 500 {
			return fmt.Errorf("%w: %v", auth.ErrInteractionRequired, err)
		}
		return err
	}

	msg := err.Error()
	for _, miss := range cacheMissMessages {
		if strings.Contains(msg, miss) {
			return fmt.Errorf("%w: %v", auth.ErrInteractionRequired, err)
		}
	}
	return err
}

func toAccount(a public.Account) auth.Account {
	return auth.Account{
		ID:          a.HomeAccountID,
		Username:    a.PreferredUsername,
		Name:        a.Name,
		Environment: a.Environment,
	}
}

func toResult(res public.AuthResult) auth.Result {
	account := toAccount(res.Account)

	claims := map[string]string{}
	for k, v := range map[string]string{
		"oid": res.IDToken.Oid,
		"sub": res.IDToken.Subject,
		"tid": res.IDToken.TenantID,
	} {
		if v != "" {
			claims[k] = v
		}
	}
	if len(claims) > 0 {
		account.Claims = claims
	}
	if account.Name == "" {
		account.Name = res.IDToken.Name
	}
	if account.Username == "" {
		account.Username = res.IDToken.PreferredUsername
	}

	return auth.Result{
		AccessToken: res.AccessToken,
		Account:     account,
		ExpiresOn:   res.ExpiresOn,
		Scopes:      res.GrantedScopes,
	}
}

// String describes the client for logs.
func (c *Client) String() string {
	return "msal(" + strings.TrimSuffix(c.authority, "/") + ")"
}

var _ auth.CredentialClient = (*Client)(nil)
