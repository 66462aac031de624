package config

import (
	"fmt"
	"net/url"
	"strings"

	"stratus/internal/anchor"
	"stratus/internal/tokencache"
	"stratus/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// addErr appends err if it is a ValidationError.
func (ve *ValidationErrors) addErr(err error) {
	if err == nil {
		return
	}
	if v, ok := err.(ValidationError); ok {
		*ve = append(*ve, v)
		return
	}
	*ve = append(*ve, ValidationError{Message: err.Error()})
}

func (ve ValidationErrors) orNil() error {
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value, entityType string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("is required for %s", entityType),
		}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateURL checks that value is an absolute URL with one of schemes.
func ValidateURL(field, value string, schemes ...string) error {
	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return ValidationError{Field: field, Value: value, Message: "must be an absolute URL"}
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must use scheme %s", strings.Join(schemes, " or ")),
	}
}

// ValidateClient checks everything a signing-in client needs.
func (c Config) ValidateClient() error {
	var errs ValidationErrors
	id := c.Identity

	if c.redirectHost() {
		c.validateRedirectHost(&errs)
		c.validateTokenCache(&errs)
		c.validateCommon(&errs)
		return errs.orNil()
	}
	if id.Host != "" {
		errs.addErr(ValidateOneOf("identity.host", strings.ToLower(id.Host), []string{HostNative, HostRedirect}))
	}

	errs.addErr(ValidateOneOf("identity.provider", id.Provider, []string{ProviderMSAL, ProviderOIDC}))
	errs.addErr(ValidateRequired("identity.client_id", id.ClientID, "sign-in"))

	switch id.Provider {
	case ProviderMSAL:
		if err := ValidateRequired("identity.authority", id.Authority, "the msal provider"); err != nil {
			errs.addErr(err)
		} else {
			errs.addErr(ValidateURL("identity.authority", id.Authority, "https"))
		}
		if id.SignUpAuthority != "" {
			errs.addErr(ValidateURL("identity.sign_up_authority", id.SignUpAuthority, "https"))
		}
		if err := validateLoopback("identity.redirect_uri", id.RedirectURI); err != nil {
			errs.addErr(err)
		}
	case ProviderOIDC:
		if err := ValidateRequired("identity.issuer", id.Issuer, "the oidc provider"); err != nil {
			errs.addErr(err)
		} else {
			errs.addErr(ValidateURL("identity.issuer", id.Issuer, "https", "http"))
		}
		if id.RedirectPort < 0 || id.RedirectPort > 65535 {
			errs.Add("identity.redirect_port", "must be between 0 and 65535", id.RedirectPort)
		}
		if id.SignUpAuthority != "" {
			errs.Add("identity.sign_up_authority", "is only supported by the msal provider", id.SignUpAuthority)
		}
	}

	if len(id.Scopes) == 0 {
		errs.Add("identity.scopes", "must have at least one scope")
	}
	for i, s := range id.Scopes {
		if strings.TrimSpace(s) == "" {
			errs.Add(fmt.Sprintf("identity.scopes[%d]", i), "must not be blank")
		}
	}

	if id.SilentTimeout < 0 {
		errs.Add("identity.silent_timeout", "must not be negative", id.SilentTimeout)
	}
	if id.InteractiveTimeout < 0 {
		errs.Add("identity.interactive_timeout", "must not be negative", id.InteractiveTimeout)
	}
	errs.addErr(ValidateOneOf("identity.anchor", strings.ToLower(id.Anchor), []string{anchor.ModeBrowser, anchor.ModeConsole}))

	c.validateTokenCache(&errs)
	c.validateCommon(&errs)

	if c.WeatherAPI.BaseURL != "" {
		errs.addErr(ValidateURL("weather_api.base_url", c.WeatherAPI.BaseURL, "https", "http"))
	}

	return errs.orNil()
}

// ValidateServer checks the settings `stratus serve` needs.
func (c Config) ValidateServer() error {
	var errs ValidationErrors
	s := c.Server

	errs.addErr(ValidateRequired("server.listen_address", s.ListenAddress, "serve"))
	if s.RequireAuth {
		if err := ValidateRequired("server.issuer", s.Issuer, "authenticated serve"); err != nil {
			errs.addErr(err)
		} else {
			errs.addErr(ValidateURL("server.issuer", s.Issuer, "https", "http"))
		}
		errs.addErr(ValidateRequired("server.audience", s.Audience, "authenticated serve"))
		errs.addErr(ValidateRequired("server.required_scope", s.RequiredScope, "authenticated serve"))
	}
	if s.ShutdownTimeout < 0 {
		errs.Add("server.shutdown_timeout", "must not be negative", s.ShutdownTimeout)
	}

	c.validateCommon(&errs)
	return errs.orNil()
}

func (c Config) redirectHost() bool {
	return strings.EqualFold(c.Identity.Host, HostRedirect)
}

// validateRedirectHost checks a host that only redirects; it needs no client
// registration.
func (c Config) validateRedirectHost(errs *ValidationErrors) {
	id := c.Identity
	if err := ValidateRequired("identity.login_url", id.LoginURL, "the redirect host"); err != nil {
		errs.addErr(err)
	} else {
		errs.addErr(ValidateURL("identity.login_url", id.LoginURL, "https", "http"))
	}
	if id.LogoutURL != "" {
		errs.addErr(ValidateURL("identity.logout_url", id.LogoutURL, "https", "http"))
	}
}

func (c Config) validateTokenCache(errs *ValidationErrors) {
	tc := c.TokenCache
	errs.addErr(ValidateOneOf("token_cache.backend", strings.ToLower(tc.Backend),
		[]string{tokencache.BackendFile, tokencache.BackendKeyring, tokencache.BackendRedis, tokencache.BackendMemory}))

	if strings.EqualFold(tc.Backend, tokencache.BackendRedis) {
		if err := ValidateRequired("token_cache.redis_url", tc.RedisURL, "the redis backend"); err != nil {
			errs.addErr(err)
		} else {
			errs.addErr(ValidateURL("token_cache.redis_url", tc.RedisURL, "redis", "rediss"))
		}
	}
	if tc.TTL < 0 {
		errs.Add("token_cache.ttl", "must not be negative", tc.TTL)
	}
}

func (c Config) validateCommon(errs *ValidationErrors) {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs.Add("log_level", err.Error(), c.LogLevel)
	}
}

// validateLoopback accepts http URLs on localhost or 127.0.0.1, as public
// clients require.
func validateLoopback(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme != "http" {
		return ValidationError{Field: field, Value: value, Message: "must be an http loopback URL"}
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return nil
	}
	return ValidationError{Field: field, Value: value, Message: "must point at localhost or 127.0.0.1"}
}
