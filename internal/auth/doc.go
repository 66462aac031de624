// Package auth reconciles the user's authentication state.
//
// The Coordinator asks a CredentialClient for a token, silently first and
// interactively when the client reports that interaction is required, and projects
// the outcome onto a Session: whether a user is signed in, whether a usable access
// token is present, and who the user is.
//
// # Hosts
//
// Two Service implementations cover the host environments stratus runs in:
//
//   - Coordinator: native hosts that can show an interactive sign-in through an
//     Anchor (a browser, a console prompt).
//   - RedirectService: web hosts where sign-in is a redirect owned by the
//     surrounding framework; SignIn returns a RedirectError with the login URL.
//
// # State
//
// Session is not an independent state machine. IsSignedIn and IsAuthenticated are
// recomputed from (User, Token) after every mutation, and every operation starts
// from a reset session and publishes a single snapshot when it finishes. Readers
// never observe the reset or a half-populated session.
package auth
