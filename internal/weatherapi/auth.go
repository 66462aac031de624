package weatherapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Principal is the caller identified by a verified bearer token.
type Principal struct {
	Subject  string
	ObjectID string
	Name     string
	Scopes   []string
	Roles    []string
}

// IsApp reports whether the token was issued to an application rather than a
// user: it carries roles but no delegated scopes.
func (p *Principal) IsApp() bool {
	return len(p.Roles) > 0 && len(p.Scopes) == 0
}

// HasPermission reports whether the caller holds permission as a delegated
// scope or an application role.
func (p *Principal) HasPermission(permission string) bool {
	return slices.Contains(p.Scopes, permission) || slices.Contains(p.Roles, permission)
}

// Verifier validates a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Principal, error)
}

// OIDCVerifier verifies access tokens signed by an OIDC issuer.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers issuer and verifies tokens for audience against its
// published keys.
func NewOIDCVerifier(ctx context.Context, issuer, audience string, hc *http.Client) (*OIDCVerifier, error) {
	if audience == "" {
		return nil, errors.New("audience is required")
	}
	if hc != nil {
		ctx = oidc.ClientContext(ctx, hc)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover issuer %s: %w", issuer, err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: audience}),
	}, nil
}

// NewStaticVerifier verifies tokens from issuer for audience against a fixed
// key set, for deployments without discovery.
func NewStaticVerifier(issuer, audience string, keys oidc.KeySet) *OIDCVerifier {
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: audience}),
	}
}

type accessTokenClaims struct {
	OID   string   `json:"oid"`
	Name  string   `json:"name"`
	Scope string   `json:"scp"`
	Roles []string `json:"roles"`
}

// Verify checks signature, issuer, audience and expiry and returns the caller.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Principal, error) {
	tok, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	var claims accessTokenClaims
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}

	return &Principal{
		Subject:  tok.Subject,
		ObjectID: claims.OID,
		Name:     claims.Name,
		Scopes:   strings.Fields(claims.Scope),
		Roles:    claims.Roles,
	}, nil
}

type contextKeyPrincipal struct{}

// PrincipalFrom returns the caller stored by RequireAuth, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKeyPrincipal{}).(*Principal)
	return p
}

// RequireAuth rejects requests without a valid bearer token (401) or without
// permission (403). An empty permission only requires a valid token.
func RequireAuth(verifier Verifier, permission string, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				metrics.recordDenied("missing_token")
				slog.Warn("SECURITY_AUDIT: Unauthorized access, missing token",
					"event", "api_token_missing",
					"path", r.URL.Path,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			principal, err := verifier.Verify(ctx, strings.TrimSpace(token))
			if err != nil {
				metrics.recordDenied("invalid_token")
				slog.Warn("SECURITY_AUDIT: Unauthorized access, invalid token",
					"event", "api_token_invalid",
					"path", r.URL.Path,
					"request_id", requestID,
					"error", err.Error(),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			if permission != "" && !principal.HasPermission(permission) {
				metrics.recordDenied("insufficient_scope")
				slog.Warn("SECURITY_AUDIT: Forbidden, missing permission",
					"event", "api_permission_denied",
					"path", r.URL.Path,
					"request_id", requestID,
					"subject", principal.Subject,
					"required", permission,
				)
				description := "Token lacks the " + permission + " permission"
				w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer error="insufficient_scope", error_description=%q, scope=%q`, description, permission))
				writeError(w, http.StatusForbidden, "insufficient_scope", description)
				return
			}

			ctx = context.WithValue(ctx, contextKeyPrincipal{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer error="invalid_token", error_description=%q`, description))
	writeError(w, http.StatusUnauthorized, "unauthorized", description)
}
