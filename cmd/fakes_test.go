package cmd

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"stratus/internal/app"
	"stratus/internal/auth"
	"stratus/internal/cli"
	"stratus/internal/config"
	"stratus/internal/tokencache"
)

// fakeSession is an app.SessionService driven by its fields.
type fakeSession struct {
	mu sync.Mutex

	session    auth.Session
	afterLogin auth.Session
	signInErr  error
	signUpErr  error
	signOutErr error
	tokenErr   error
	scopes     []string

	signInCalls  int
	signUpCalls  int
	signOutCalls int
	updateCalls  int
}

func (f *fakeSession) SignIn(ctx context.Context) (auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCalls++
	if f.signInErr != nil {
		f.session = auth.Session{}
		return auth.Session{}, f.signInErr
	}
	f.session = f.afterLogin
	return f.session, nil
}

func (f *fakeSession) SignUp(ctx context.Context) (auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUpCalls++
	if f.signUpErr != nil {
		return auth.Session{}, f.signUpErr
	}
	f.session = f.afterLogin
	return f.session, nil
}

func (f *fakeSession) UpdateFromCache(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
}

func (f *fakeSession) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	f.session = auth.Session{}
	return f.signOutErr
}

func (f *fakeSession) Session() auth.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeSession) AccessToken(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	if !f.session.IsAuthenticated {
		return "", auth.ErrNotAuthenticated
	}
	return f.session.Token, nil
}

func (f *fakeSession) Scopes() []string {
	return f.scopes
}

var _ app.SessionService = (*fakeSession)(nil)

func signedInSession(expiresOn time.Time) auth.Session {
	return auth.Session{
		IsAuthenticated: true,
		IsSignedIn:      true,
		User: &auth.Account{
			ID:          "uid.utid",
			Username:    "alice@contoso.com",
			Name:        "Alice",
			Environment: "login.microsoftonline.com",
		},
		Token:     "access-token",
		ExpiresOn: expiresOn,
	}
}

// useServices makes clientServices return services built around fake and
// resets the command flags when the test ends.
func useServices(t *testing.T, fake *fakeSession) *app.Services {
	t.Helper()

	settings := config.GetDefaultConfig()
	settings.Identity.ClientID = "client"
	settings.Identity.Authority = "https://login.microsoftonline.com/contoso.onmicrosoft.com"
	settings.Identity.Scopes = []string{"openid", "api://weather/Weather.Read"}
	settings.TokenCache.Backend = tokencache.BackendMemory

	store := tokencache.NewMemoryStore(0)
	services := &app.Services{
		Auth:        fake,
		Store:       store,
		Persistence: tokencache.NewPersistence(store, ""),
		Settings:    settings,
	}

	original := clientServices
	clientServices = func(*cobra.Command) (*app.Services, error) { return services, nil }
	t.Cleanup(func() {
		clientServices = original
		resetFlags()
	})
	resetFlags()
	return services
}

func resetFlags() {
	noBrowser = false
	loginSignUp = false
	loginQuiet = false
	logoutPurge = false
	logoutQuiet = false
	statusWatch = false
	statusFlags = cli.CommandFlags{OutputFormat: string(cli.OutputFormatTable)}
	forecastLogin = false
	forecastFlags = cli.CommandFlags{OutputFormat: string(cli.OutputFormatTable), Quiet: true}
}

// testCommand returns a command writing to a buffer.
func testCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)
	c.SetErr(&buf)
	return c, &buf
}
