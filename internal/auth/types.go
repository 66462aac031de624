package auth

import (
	"context"
	"slices"
	"time"
)

// Account identifies a user known to the identity provider's cache.
// The handle is owned by the CredentialClient; callers only keep copies.
type Account struct {
	// ID is the provider's stable identifier (home account ID or subject).
	ID string `json:"id"`

	// Username is the preferred username or email, used for display.
	Username string `json:"username,omitempty"`

	// Name is the display name if the provider returned one.
	Name string `json:"name,omitempty"`

	// Environment is the authority host that issued the account.
	Environment string `json:"environment,omitempty"`

	// Claims holds selected ID token claims.
	Claims map[string]string `json:"claims,omitempty"`
}

// IsZero reports whether the account is the zero value (no cached account).
func (a Account) IsZero() bool {
	return a.ID == ""
}

// DisplayName returns the best human-readable name for the account.
func (a Account) DisplayName() string {
	switch {
	case a.Username != "":
		return a.Username
	case a.Name != "":
		return a.Name
	default:
		return a.ID
	}
}

// Result is a successful token acquisition.
type Result struct {
	AccessToken string
	Account     Account
	ExpiresOn   time.Time
	Scopes      []string
}

// Session is the reconciled authentication state.
type Session struct {
	IsAuthenticated bool      `json:"is_authenticated"`
	IsSignedIn      bool      `json:"is_signed_in"`
	User            *Account  `json:"user,omitempty"`
	Token           string    `json:"-"`
	ExpiresOn       time.Time `json:"expires_on,omitempty"`
}

// HasToken reports whether the session carries an access token.
func (s Session) HasToken() bool {
	return s.Token != ""
}

// clone returns a deep copy so published snapshots cannot be mutated by callers.
func (s Session) clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		if s.User.Claims != nil {
			u.Claims = make(map[string]string, len(s.User.Claims))
			for k, v := range s.User.Claims {
				u.Claims[k] = v
			}
		}
		out.User = &u
	}
	return out
}

// derive recomputes the two booleans from (User, Token).
func (s *Session) derive() {
	s.IsAuthenticated = false
	s.IsSignedIn = false
	if s.User != nil {
		s.IsSignedIn = true
		if s.Token != "" {
			s.IsAuthenticated = true
		}
	}
}

// sessionFrom builds a derived session from one acquisition result.
func sessionFrom(result Result) Session {
	var s Session
	if !result.Account.IsZero() {
		acct := result.Account
		s.User = &acct
	}
	s.Token = result.AccessToken
	s.ExpiresOn = result.ExpiresOn
	s.derive()
	return s
}

// Anchor is the host surface an interactive sign-in is presented on.
type Anchor interface {
	// OpenURL presents the identity provider's sign-in page at url.
	OpenURL(url string) error
}

// AnchorProvider supplies the anchor for the current host.
type AnchorProvider interface {
	CurrentAnchor() (Anchor, error)
}

// CredentialClient is the identity provider SDK surface the Coordinator needs.
//
// AcquireTokenSilent must return an error wrapping ErrInteractionRequired when the
// cache cannot satisfy the request without user interaction. Every other error is
// treated as fatal for the call.
type CredentialClient interface {
	Accounts(ctx context.Context) ([]Account, error)
	AcquireTokenSilent(ctx context.Context, scopes []string, account Account) (Result, error)
	AcquireTokenInteractive(ctx context.Context, scopes []string, anchor Anchor) (Result, error)
	RemoveAccount(ctx context.Context, account Account) error
}

// Service is the host-independent authentication surface used by the CLI.
type Service interface {
	SignIn(ctx context.Context) (Session, error)
	UpdateFromCache(ctx context.Context)
	SignOut(ctx context.Context) error
	Session() Session
}

// copyScopes returns an independent copy of scopes.
func copyScopes(scopes []string) []string {
	return slices.Clone(scopes)
}
