// Package app bootstraps stratus commands.
//
// NewApplication loads the configuration (config.yaml, .env files and STRATUS_*
// variables) and initializes logging. From there a command either asks for the
// client services, which wire the token cache, the credential clients, the
// anchor provider and the auth coordinator, or runs the weather API server.
//
// # Client services
//
// InitializeServices builds, in order:
//
//  1. The token cache Store selected by token_cache.backend and its Persistence hooks
//  2. The credential client for identity.authority (msal) or identity.issuer (oidc)
//  3. The optional sign-up client for identity.sign_up_authority
//  4. The anchor provider, forced to the console by --no-browser
//  5. The auth.Coordinator
//
// # Server
//
// Application.Serve runs the weather API with graceful shutdown on context
// cancellation. When started by systemd it reports readiness and answers the
// watchdog.
package app
