// Package config loads stratus configuration.
//
// Configuration is read once at startup from a single directory, by default
// ~/.config/stratus, or the directory given with --config-path:
//
//   - config.yaml holds the settings, decoded over the defaults
//   - .env in the configuration directory and in the working directory
//     supplies STRATUS_* variables
//
// Precedence, lowest first: defaults, config.yaml, .env files, process
// environment. The result is validated before any component is built, so a
// missing client ID or an empty scope list fails fast with a ValidationErrors
// listing every problem.
//
// # Example
//
//	identity:
//	  provider: msal
//	  client_id: 00000000-0000-0000-0000-000000000000
//	  authority: https://contoso.b2clogin.com/tfp/contoso.onmicrosoft.com/B2C_1_susi
//	  scopes:
//	    - https://contoso.onmicrosoft.com/weather/Weather.Read
//	token_cache:
//	  backend: keyring
//	weather_api:
//	  base_url: https://localhost:7043
//
// The authority is used exactly as written. No tenant or policy URL is
// synthesized from other settings.
package config
