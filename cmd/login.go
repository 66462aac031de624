package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"stratus/internal/anchor"
	"stratus/internal/app"
	"stratus/internal/auth"
	"stratus/internal/cli"
	"stratus/internal/config"

	"github.com/spf13/cobra"
)

// Login-specific flags
var (
	loginSignUp bool
	loginQuiet  bool
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and cache an access token",
	Long: `Sign in with the configured identity provider.

A token already in the cache is used silently. Otherwise the sign-in page is
opened in your browser (or printed with --no-browser) and stratus waits for you
to finish.

Examples:
  stratus login                  # Sign in, silently if possible
  stratus login --signup         # Create an account with the sign-up authority
  stratus login --no-browser     # Print the sign-in URL instead of opening it`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().BoolVar(&loginSignUp, "signup", false, "Use the sign-up authority (identity.sign_up_authority)")
	loginCmd.Flags().BoolVarP(&loginQuiet, "quiet", "q", false, "Suppress non-essential output")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	services, err := clientServices(cmd)
	if err != nil {
		return err
	}
	defer services.Close()

	session, err := signIn(ctx, services, loginSignUp, loginQuiet)
	if err != nil {
		return err
	}

	if !loginQuiet {
		printSignedIn(cmd.OutOrStdout(), session, time.Now())
	}
	return nil
}

// signIn runs SignIn (or SignUp) with a progress indicator and maps failures
// to CLI errors.
func signIn(ctx context.Context, services *app.Services, signUp, quiet bool) (auth.Session, error) {
	authority := signInAuthority(services.Settings.Identity, signUp)

	// The console anchor prints the sign-in URL on stderr, which the spinner
	// would overwrite.
	progress := cli.StartProgress(" Waiting for sign-in to complete...", quiet || consoleSignIn(services.Settings.Identity))

	var (
		session auth.Session
		err     error
	)
	if signUp {
		session, err = services.Auth.SignUp(ctx)
	} else {
		session, err = services.Auth.SignIn(ctx)
	}
	progress.Stop()

	if err != nil {
		return auth.Session{}, loginError(err, authority)
	}
	return session, nil
}

func consoleSignIn(id config.IdentityConfig) bool {
	return noBrowser || strings.EqualFold(id.Anchor, anchor.ModeConsole)
}

// signInAuthority names the authority sign-in talks to, for error messages.
func signInAuthority(id config.IdentityConfig, signUp bool) string {
	switch {
	case strings.EqualFold(id.Host, config.HostRedirect):
		return id.LoginURL
	case signUp:
		return id.SignUpAuthority
	case id.Provider == config.ProviderOIDC:
		return id.Issuer
	default:
		return id.Authority
	}
}

// loginError converts a sign-in failure into the error the CLI reports.
func loginError(err error, authority string) error {
	var redirect *auth.RedirectError
	switch {
	case errors.As(err, &redirect):
		return &cli.SignInRedirectedError{LoginURL: redirect.LoginURL}
	case errors.Is(err, auth.ErrSignUpNotConfigured):
		return fmt.Errorf("%w: set identity.sign_up_authority in config.yaml", err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return &cli.AuthFailedError{Endpoint: authority, Reason: err}
	}
}

func printSignedIn(w io.Writer, session auth.Session, now time.Time) {
	if session.User == nil {
		fmt.Fprintln(w, cli.FormatSuccess("Signed in"))
	} else {
		fmt.Fprintln(w, cli.FormatSuccess("Signed in as "+session.User.DisplayName()))
	}
	if !session.ExpiresOn.IsZero() {
		fmt.Fprintf(w, "  Expires:   %s\n", cli.FormatExpiry(session.ExpiresOn, now))
	}
}
