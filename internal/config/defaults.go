package config

import (
	"time"

	"stratus/internal/tokencache"
)

const (
	// DefaultRedirectURI lets MSAL choose a free loopback port.
	DefaultRedirectURI = "http://localhost"

	// DefaultWeatherAPIURL is the development address of the weather API.
	DefaultWeatherAPIURL = "https://localhost:7043"

	// DefaultListenAddress is where `stratus serve` listens.
	DefaultListenAddress = ":8080"

	// DefaultRequiredScope is the scope the weather API demands.
	DefaultRequiredScope = "Weather.Read"
)

// GetDefaultConfig returns the configuration used when no file overrides it.
func GetDefaultConfig() Config {
	return Config{
		Identity: IdentityConfig{
			Provider:           ProviderMSAL,
			RedirectURI:        DefaultRedirectURI,
			SilentTimeout:      30 * time.Second,
			InteractiveTimeout: 10 * time.Minute,
			Anchor:             "browser",
			Host:               HostNative,
		},
		TokenCache: TokenCacheConfig{
			Backend:        tokencache.BackendFile,
			Key:            tokencache.DefaultKey,
			KeyringService: tokencache.DefaultKeyringService,
			RedisPrefix:    tokencache.DefaultRedisPrefix,
		},
		WeatherAPI: WeatherAPIConfig{
			BaseURL: DefaultWeatherAPIURL,
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			ListenAddress:   DefaultListenAddress,
			RequireAuth:     true,
			RequiredScope:   DefaultRequiredScope,
			ShutdownTimeout: 10 * time.Second,
		},
		LogLevel: "info",
	}
}
