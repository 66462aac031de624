package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"stratus/internal/anchor"
	"stratus/internal/auth"
	"stratus/internal/config"
	"stratus/internal/credential/msal"
	"stratus/internal/credential/oidc"
	"stratus/internal/tokencache"
	"stratus/pkg/logging"
)

// SessionService is the authentication surface the client commands use.
// *auth.Coordinator and *auth.RedirectService implement it.
type SessionService interface {
	auth.Service
	SignUp(ctx context.Context) (auth.Session, error)
	AccessToken(ctx context.Context) (string, error)
	Scopes() []string
}

// Services holds everything a client command needs.
type Services struct {
	// Auth reconciles the signed-in session.
	Auth SessionService

	// Store is where the serialized token cache lives.
	Store tokencache.Store

	// Persistence connects the credential clients to Store.
	Persistence *tokencache.Persistence

	// Settings is the configuration the services were built from.
	Settings config.Config
}

// InitializeServices wires the client side:
//
//  1. Token cache store and persistence hooks
//  2. Credential client for the sign-in authority (msal or oidc)
//  3. Optional sign-up client for identity.sign_up_authority
//  4. Anchor provider (console when noBrowser is set)
//  5. Coordinator
//
// A redirect host (identity.host: redirect) skips steps 2-5 and gets a
// RedirectService pointing at identity.login_url.
func InitializeServices(ctx context.Context, settings config.Config, noBrowser bool, anchorOut io.Writer) (*Services, error) {
	tc := settings.TokenCache
	store, err := tokencache.Open(ctx, tokencache.Options{
		Backend:        tc.Backend,
		Dir:            tc.Dir,
		EncryptionKey:  tc.EncryptionKey,
		KeyringService: tc.KeyringService,
		RedisURL:       tc.RedisURL,
		RedisPrefix:    tc.RedisPrefix,
		TTL:            tc.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open token cache: %w", err)
	}
	persistence := tokencache.NewPersistence(store, tc.Key)
	logging.Debug("Bootstrap", "Token cache backend: %s", store.Backend())

	services := &Services{Store: store, Persistence: persistence, Settings: settings}

	id := settings.Identity
	if strings.EqualFold(id.Host, config.HostRedirect) {
		logging.Info("Bootstrap", "Sign-in is redirected to %s", id.LoginURL)
		services.Auth = auth.NewRedirectService(id.LoginURL, id.LogoutURL)
		return services, nil
	}

	client, err := newCredentialClient(id, id.Authority, persistence)
	if err != nil {
		services.Close()
		return nil, err
	}

	var signUpClient auth.CredentialClient
	if id.SignUpAuthority != "" {
		signUpClient, err = newCredentialClient(id, id.SignUpAuthority, persistence)
		if err != nil {
			services.Close()
			return nil, fmt.Errorf("sign-up client: %w", err)
		}
	}

	mode := id.Anchor
	if noBrowser {
		mode = anchor.ModeConsole
	}
	anchors, err := anchor.ForMode(mode, anchorOut)
	if err != nil {
		services.Close()
		return nil, err
	}

	coordinator, err := auth.NewCoordinator(auth.CoordinatorConfig{
		Client:             client,
		SignUpClient:       signUpClient,
		Anchors:            anchors,
		Scopes:             id.Scopes,
		SilentTimeout:      id.SilentTimeout,
		InteractiveTimeout: id.InteractiveTimeout,
	})
	if err != nil {
		services.Close()
		return nil, err
	}
	services.Auth = coordinator
	return services, nil
}

var (
	_ SessionService = (*auth.Coordinator)(nil)
	_ SessionService = (*auth.RedirectService)(nil)
)

// newCredentialClient builds the provider client for authority. Both clients
// of one configuration share the same persistence hooks.
func newCredentialClient(id config.IdentityConfig, authority string, persistence *tokencache.Persistence) (auth.CredentialClient, error) {
	switch id.Provider {
	case config.ProviderOIDC:
		return oidc.New(oidc.Config{
			Issuer:       id.Issuer,
			ClientID:     id.ClientID,
			RedirectPort: id.RedirectPort,
			Hooks:        persistence,
		})
	case config.ProviderMSAL, "":
		return msal.New(msal.Config{
			ClientID:          id.ClientID,
			Authority:         authority,
			RedirectURI:       id.RedirectURI,
			InstanceDiscovery: id.InstanceDiscovery,
			Cache:             persistence,
		})
	default:
		return nil, fmt.Errorf("unknown identity provider %q", id.Provider)
	}
}

// CachePath returns the token cache file when the file backend is in use.
func (s *Services) CachePath() (string, bool) {
	fs, ok := s.Store.(*tokencache.FileStore)
	if !ok {
		return "", false
	}
	key := s.Settings.TokenCache.Key
	if key == "" {
		key = tokencache.DefaultKey
	}
	return fs.Path(key), true
}

// Close releases the token cache store.
func (s *Services) Close() error {
	if closer, ok := s.Store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
