package weather

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Challenge is a parsed WWW-Authenticate header (RFC 6750).
//
// Example headers:
//
//	Bearer error="invalid_token", error_description="Invalid or expired token"
//	Bearer error="insufficient_scope", scope="Weather.Read"
type Challenge struct {
	Scheme           string
	Realm            string
	Scope            string
	Error            string
	ErrorDescription string
}

var authParamRegex = regexp.MustCompile(`(\w+)="([^"]*)"`)

// ParseChallenge parses a WWW-Authenticate header value.
func ParseChallenge(header string) (*Challenge, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, fmt.Errorf("empty WWW-Authenticate header")
	}

	scheme, params, _ := strings.Cut(header, " ")
	challenge := &Challenge{Scheme: scheme}

	for _, match := range authParamRegex.FindAllStringSubmatch(params, -1) {
		value := match[2]
		switch strings.ToLower(match[1]) {
		case "realm":
			challenge.Realm = value
		case "scope":
			challenge.Scope = value
		case "error":
			challenge.Error = value
		case "error_description":
			challenge.ErrorDescription = value
		}
	}

	return challenge, nil
}

// AuthError is returned for 401 and 403 responses. It matches ErrUnauthorized.
type AuthError struct {
	StatusCode int

	// Challenge is nil when the response carried no WWW-Authenticate header.
	Challenge *Challenge
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	msg := fmt.Sprintf("%s (%d)", ErrUnauthorized, e.StatusCode)
	c := e.Challenge
	if c == nil || c.Error == "" {
		return msg
	}
	msg += ": " + c.Error
	if c.ErrorDescription != "" {
		msg += ": " + c.ErrorDescription
	}
	return msg
}

// Unwrap returns ErrUnauthorized.
func (e *AuthError) Unwrap() error {
	return ErrUnauthorized
}

// InsufficientScope reports whether the token was valid but lacked a permission.
func (e *AuthError) InsufficientScope() bool {
	return e.StatusCode == http.StatusForbidden || (e.Challenge != nil && e.Challenge.Error == "insufficient_scope")
}

func authErrorFrom(resp *http.Response) *AuthError {
	e := &AuthError{StatusCode: resp.StatusCode}
	if header := resp.Header.Get("WWW-Authenticate"); header != "" {
		if c, err := ParseChallenge(header); err == nil {
			e.Challenge = c
		}
	}
	return e
}
