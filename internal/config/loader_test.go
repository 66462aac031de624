package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withEnv replaces the process environment seen by the loader.
func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	original := lookupEnv
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	t.Cleanup(func() { lookupEnv = original })
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}

// chdir moves into dir for the test so the working-directory .env is isolated.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	withEnv(t, nil)
	chdir(t, t.TempDir())

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	withEnv(t, nil)
	chdir(t, t.TempDir())
	dir := t.TempDir()

	writeFile(t, dir, configFileName, `
identity:
  client_id: 11111111-2222-3333-4444-555555555555
  authority: https://contoso.b2clogin.com/tfp/contoso.onmicrosoft.com/B2C_1_susi
  scopes:
    - https://contoso.onmicrosoft.com/weather/Weather.Read
  silent_timeout: 5s
token_cache:
  backend: keyring
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "11111111-2222-3333-4444-555555555555", cfg.Identity.ClientID)
	assert.Equal(t, "https://contoso.b2clogin.com/tfp/contoso.onmicrosoft.com/B2C_1_susi", cfg.Identity.Authority)
	assert.Equal(t, []string{"https://contoso.onmicrosoft.com/weather/Weather.Read"}, cfg.Identity.Scopes)
	assert.Equal(t, 5*time.Second, cfg.Identity.SilentTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Identity.InteractiveTimeout, "unset fields keep defaults")
	assert.Equal(t, "keyring", cfg.TokenCache.Backend)
	assert.Equal(t, ProviderMSAL, cfg.Identity.Provider)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	withEnv(t, nil)
	chdir(t, t.TempDir())
	dir := t.TempDir()
	writeFile(t, dir, configFileName, "identity: [not, a, map")

	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "error loading config")
}

func TestLoadConfig_Precedence(t *testing.T) {
	configDir := t.TempDir()
	workDir := t.TempDir()
	chdir(t, workDir)

	writeFile(t, configDir, configFileName, `
identity:
  client_id: from-file
  authority: https://file.example/tenant
log_level: warn
`)
	writeFile(t, configDir, envFileName, "STRATUS_CLIENT_ID=from-config-env\nSTRATUS_AUTHORITY=https://env.example/tenant\nSTRATUS_SCOPES=a b\n")
	writeFile(t, workDir, envFileName, "STRATUS_CLIENT_ID=from-workdir-env\nSTRATUS_SCOPES=x,y\n")
	withEnv(t, map[string]string{"STRATUS_SCOPES": "openid api://weather/Weather.Read"})

	cfg, err := LoadConfig(configDir)
	require.NoError(t, err)

	assert.Equal(t, "from-workdir-env", cfg.Identity.ClientID, "working directory .env wins over config directory .env")
	assert.Equal(t, "https://env.example/tenant", cfg.Identity.Authority)
	assert.Equal(t, []string{"openid", "api://weather/Weather.Read"}, cfg.Identity.Scopes, "process environment wins")
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfig_InvalidEnvValue(t *testing.T) {
	withEnv(t, map[string]string{"STRATUS_SILENT_TIMEOUT": "soon"})
	chdir(t, t.TempDir())

	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "STRATUS_SILENT_TIMEOUT")
}

func TestLoadConfig_EnvTypes(t *testing.T) {
	withEnv(t, map[string]string{
		"STRATUS_REDIRECT_PORT":       "8400",
		"STRATUS_REQUIRE_AUTH":        "false",
		"STRATUS_INTERACTIVE_TIMEOUT": "2m",
		"STRATUS_PROVIDER":            "oidc",
	})
	chdir(t, t.TempDir())

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 8400, cfg.Identity.RedirectPort)
	assert.False(t, cfg.Server.RequireAuth)
	assert.Equal(t, 2*time.Minute, cfg.Identity.InteractiveTimeout)
	assert.Equal(t, ProviderOIDC, cfg.Identity.Provider)
}

func TestSplitScopes(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitScopes(" a, b\tc "))
	assert.Empty(t, SplitScopes(""))
}
