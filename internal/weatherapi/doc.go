// Package weatherapi serves the weather forecast API the CLI calls.
//
// Routes:
//   - GET /WeatherForecast: five days starting tomorrow, behind bearer
//     authentication when a Verifier is configured
//   - GET /healthz: liveness
//   - GET /metrics: Prometheus metrics
//
// Bearer tokens are verified with go-oidc against the issuer's keys. The
// audience must match and the caller needs the required scope, either as a
// delegated scope in "scp" or as an application role in "roles".
package weatherapi
