// Package logging provides the subsystem-tagged logger used across stratus.
//
// It is a thin layer over log/slog. Every entry carries a subsystem attribute so
// that output from the token cache, the coordinator, and the companion API can be
// told apart when they share a terminal.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Config", "Loaded configuration from %s", path)
//	logging.Debug("Coordinator", "Silent acquisition for %s", account.Username)
//	logging.Error("TokenCache", err, "Failed to persist cache blob")
//
// # Subsystems
//
//   - Bootstrap: startup and composition of services
//   - Config: configuration loading and validation
//   - Coordinator: sign-in, cache refresh and sign-out flows
//   - TokenCache: loading and saving the serialized credential cache
//   - Credential: identity provider adapters
//   - WeatherAPI: the companion forecast server
//
// Security-relevant events are additionally emitted through slog with a
// "SECURITY_AUDIT:" prefix by the packages that own them. Token values are never
// logged by any subsystem.
package logging
