package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stratus/pkg/logging"
)

const (
	userConfigDir  = ".config/stratus"
	configFileName = "config.yaml"
	envFileName    = ".env"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "STRATUS_"
)

// lookupEnv is replaced in tests.
var lookupEnv = os.LookupEnv

// GetDefaultConfigPathOrPanic returns ~/.config/stratus.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from configPath: defaults, then config.yaml,
// then .env files, then the process environment. It does not validate.
func LoadConfig(configPath string) (Config, error) {
	config := GetDefaultConfig()

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	env, err := readEnvFiles(filepath.Join(configPath, envFileName), envFileName)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	}

	if err := applyEnv(&config, lookup); err != nil {
		return Config{}, err
	}
	return config, nil
}

// readEnvFiles merges the given .env files; later files win. Missing files are
// skipped.
func readEnvFiles(paths ...string) (map[string]string, error) {
	merged := map[string]string{}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", path, err)
		}
		for k, v := range values {
			merged[k] = v
		}
		logging.Debug("ConfigLoader", "Loaded environment from %s", path)
	}
	return merged, nil
}

type envBinding struct {
	name  string
	apply func(c *Config, value string) error
}

func stringVar(target func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*target(c) = v
		return nil
	}
}

func durationVar(target func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*target(c) = d
		return nil
	}
}

func boolVar(target func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*target(c) = b
		return nil
	}
}

var envBindings = []envBinding{
	{"PROVIDER", stringVar(func(c *Config) *string { return &c.Identity.Provider })},
	{"CLIENT_ID", stringVar(func(c *Config) *string { return &c.Identity.ClientID })},
	{"AUTHORITY", stringVar(func(c *Config) *string { return &c.Identity.Authority })},
	{"SIGN_UP_AUTHORITY", stringVar(func(c *Config) *string { return &c.Identity.SignUpAuthority })},
	{"REDIRECT_URI", stringVar(func(c *Config) *string { return &c.Identity.RedirectURI })},
	{"ISSUER", stringVar(func(c *Config) *string { return &c.Identity.Issuer })},
	{"ANCHOR", stringVar(func(c *Config) *string { return &c.Identity.Anchor })},
	{"SCOPES", func(c *Config, v string) error {
		c.Identity.Scopes = SplitScopes(v)
		return nil
	}},
	{"REDIRECT_PORT", func(c *Config, v string) error {
		port, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Identity.RedirectPort = port
		return nil
	}},
	{"SILENT_TIMEOUT", durationVar(func(c *Config) *time.Duration { return &c.Identity.SilentTimeout })},
	{"INTERACTIVE_TIMEOUT", durationVar(func(c *Config) *time.Duration { return &c.Identity.InteractiveTimeout })},
	{"IDENTITY_HOST", stringVar(func(c *Config) *string { return &c.Identity.Host })},
	{"LOGIN_URL", stringVar(func(c *Config) *string { return &c.Identity.LoginURL })},
	{"LOGOUT_URL", stringVar(func(c *Config) *string { return &c.Identity.LogoutURL })},
	{"TOKEN_CACHE_BACKEND", stringVar(func(c *Config) *string { return &c.TokenCache.Backend })},
	{"TOKEN_CACHE_DIR", stringVar(func(c *Config) *string { return &c.TokenCache.Dir })},
	{"TOKEN_CACHE_ENCRYPTION_KEY", stringVar(func(c *Config) *string { return &c.TokenCache.EncryptionKey })},
	{"REDIS_URL", stringVar(func(c *Config) *string { return &c.TokenCache.RedisURL })},
	{"WEATHER_API_URL", stringVar(func(c *Config) *string { return &c.WeatherAPI.BaseURL })},
	{"LISTEN_ADDRESS", stringVar(func(c *Config) *string { return &c.Server.ListenAddress })},
	{"REQUIRE_AUTH", boolVar(func(c *Config) *bool { return &c.Server.RequireAuth })},
	{"SERVER_ISSUER", stringVar(func(c *Config) *string { return &c.Server.Issuer })},
	{"SERVER_AUDIENCE", stringVar(func(c *Config) *string { return &c.Server.Audience })},
	{"LOG_LEVEL", stringVar(func(c *Config) *string { return &c.LogLevel })},
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		name := EnvPrefix + b.name
		value, ok := lookup(name)
		if !ok || value == "" {
			continue
		}
		if err := b.apply(c, value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// SplitScopes splits a space or comma separated scope list.
func SplitScopes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
