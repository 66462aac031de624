// Package cli holds the presentation helpers shared by the stratus commands.
//
// Errors carry actionable guidance (AuthRequiredError, AuthFailedError,
// SignInRedirectedError, ConnectionError) and map to exit codes in cmd.
// Printer renders command results as a kubectl-style plain table, JSON or
// YAML, and Progress shows a spinner while the user finishes signing in.
package cli
