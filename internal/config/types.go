package config

import "time"

// Config is the top-level configuration structure for stratus.
type Config struct {
	Identity   IdentityConfig   `yaml:"identity"`
	TokenCache TokenCacheConfig `yaml:"token_cache"`
	WeatherAPI WeatherAPIConfig `yaml:"weather_api"`
	Server     ServerConfig     `yaml:"server"`
	LogLevel   string           `yaml:"log_level,omitempty"`
}

// Identity providers.
const (
	ProviderMSAL = "msal"
	ProviderOIDC = "oidc"
)

// Identity hosts.
const (
	// HostNative signs in locally through a credential client and token cache.
	HostNative = "native"
	// HostRedirect hands sign-in to a web host at LoginURL.
	HostRedirect = "redirect"
)

// IdentityConfig describes the identity provider and the public client
// registration used to sign in.
type IdentityConfig struct {
	Provider string `yaml:"provider"` // msal (default) or oidc
	ClientID string `yaml:"client_id"`

	// Authority is the MSAL sign-in authority, used verbatim.
	Authority string `yaml:"authority,omitempty"`
	// SignUpAuthority is an optional MSAL authority for `login --signup`.
	SignUpAuthority string `yaml:"sign_up_authority,omitempty"`
	// RedirectURI is the loopback URI registered for MSAL.
	RedirectURI string `yaml:"redirect_uri,omitempty"`
	// InstanceDiscovery enables Entra instance discovery. Disable for B2C and CIAM.
	InstanceDiscovery bool `yaml:"instance_discovery,omitempty"`

	// Issuer is the OpenID Connect issuer for the oidc provider.
	Issuer string `yaml:"issuer,omitempty"`
	// RedirectPort is the loopback port for the oidc provider (0 picks a free port).
	RedirectPort int `yaml:"redirect_port,omitempty"`

	Scopes             []string      `yaml:"scopes"`
	SilentTimeout      time.Duration `yaml:"silent_timeout,omitempty"`
	InteractiveTimeout time.Duration `yaml:"interactive_timeout,omitempty"`

	// Anchor selects where interactive sign-in is shown: browser or console.
	Anchor string `yaml:"anchor,omitempty"`

	// Host is native (default) or redirect.
	Host string `yaml:"host,omitempty"`
	// LoginURL is where a redirect host sends the user to sign in.
	LoginURL string `yaml:"login_url,omitempty"`
	// LogoutURL is where a redirect host continues sign-out.
	LogoutURL string `yaml:"logout_url,omitempty"`
}

// TokenCacheConfig selects where the serialized token cache is kept.
type TokenCacheConfig struct {
	Backend        string        `yaml:"backend"` // file, keyring, redis or memory
	Key            string        `yaml:"key,omitempty"`
	Dir            string        `yaml:"dir,omitempty"`
	EncryptionKey  string        `yaml:"encryption_key,omitempty"`
	KeyringService string        `yaml:"keyring_service,omitempty"`
	RedisURL       string        `yaml:"redis_url,omitempty"`
	RedisPrefix    string        `yaml:"redis_prefix,omitempty"`
	TTL            time.Duration `yaml:"ttl,omitempty"`
}

// WeatherAPIConfig points the forecast client at the companion API.
type WeatherAPIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ServerConfig configures `stratus serve`.
type ServerConfig struct {
	ListenAddress   string        `yaml:"listen_address"`
	RequireAuth     bool          `yaml:"require_auth"`
	Issuer          string        `yaml:"issuer,omitempty"`
	Audience        string        `yaml:"audience,omitempty"`
	RequiredScope   string        `yaml:"required_scope,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}
