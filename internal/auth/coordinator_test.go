package auth_test

//go:generate mockgen -source=types.go -destination=mocks/mocks.go -package=mocks -exclude_interfaces=Service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stratus/internal/auth"
	"stratus/internal/auth/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testScopes = []string{"openid", "offline_access", "api://weather/Weather.Read"}

type coordinatorFixture struct {
	client  *mocks.MockCredentialClient
	anchors *mocks.MockAnchorProvider
	anchor  *mocks.MockAnchor
	coord   *auth.Coordinator
}

func newFixture(t *testing.T) *coordinatorFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &coordinatorFixture{
		client:  mocks.NewMockCredentialClient(ctrl),
		anchors: mocks.NewMockAnchorProvider(ctrl),
		anchor:  mocks.NewMockAnchor(ctrl),
	}

	coord, err := auth.NewCoordinator(auth.CoordinatorConfig{
		Client:  f.client,
		Anchors: f.anchors,
		Scopes:  testScopes,
	})
	require.NoError(t, err)
	f.coord = coord
	return f
}

func testAccount(id string) auth.Account {
	return auth.Account{
		ID:          id,
		Username:    id + "@contoso.example",
		Environment: "contoso.ciamlogin.com",
	}
}

func resultFor(account auth.Account, token string) auth.Result {
	return auth.Result{
		AccessToken: token,
		Account:     account,
		ExpiresOn:   time.Now().Add(time.Hour),
		Scopes:      testScopes,
	}
}

func assertInvariants(t *testing.T, s auth.Session) {
	t.Helper()
	if s.IsAuthenticated {
		assert.True(t, s.IsSignedIn, "authenticated implies signed in")
		assert.NotEmpty(t, s.Token, "authenticated implies token present")
	}
	if s.IsSignedIn {
		assert.NotNil(t, s.User, "signed in implies user present")
	}
}

func assertEmpty(t *testing.T, s auth.Session) {
	t.Helper()
	assert.False(t, s.IsAuthenticated)
	assert.False(t, s.IsSignedIn)
	assert.Nil(t, s.User)
	assert.Empty(t, s.Token)
}

func TestNewCoordinator_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCredentialClient(ctrl)
	anchors := mocks.NewMockAnchorProvider(ctrl)

	tests := []struct {
		name string
		cfg  auth.CoordinatorConfig
	}{
		{"missing client", auth.CoordinatorConfig{Anchors: anchors, Scopes: testScopes}},
		{"missing anchors", auth.CoordinatorConfig{Client: client, Scopes: testScopes}},
		{"no scopes", auth.CoordinatorConfig{Client: client, Anchors: anchors}},
		{"blank scope", auth.CoordinatorConfig{Client: client, Anchors: anchors, Scopes: []string{"openid", "  "}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			coord, err := auth.NewCoordinator(tc.cfg)
			assert.Error(t, err)
			assert.Nil(t, coord)
		})
	}
}

func TestCoordinator_ScopesAreImmutable(t *testing.T) {
	scopes := []string{"openid", "offline_access"}
	ctrl := gomock.NewController(t)

	coord, err := auth.NewCoordinator(auth.CoordinatorConfig{
		Client:  mocks.NewMockCredentialClient(ctrl),
		Anchors: mocks.NewMockAnchorProvider(ctrl),
		Scopes:  scopes,
	})
	require.NoError(t, err)

	scopes[0] = "mutated"
	got := coord.Scopes()
	got[1] = "mutated-too"

	assert.Equal(t, []string{"openid", "offline_access"}, coord.Scopes())
}

func TestCoordinator_SignIn_SilentSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := testAccount("alice")

	f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{account}, nil)
	f.client.EXPECT().AcquireTokenSilent(gomock.Any(), testScopes, account).
		Return(resultFor(account, "silent-token"), nil)
	f.client.EXPECT().AcquireTokenInteractive(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	session, err := f.coord.SignIn(ctx)
	require.NoError(t, err)

	assert.True(t, session.IsSignedIn)
	assert.True(t, session.IsAuthenticated)
	assert.Equal(t, "silent-token", session.Token)
	require.NotNil(t, session.User)
	assert.Equal(t, account, *session.User)
	assert.Equal(t, session, f.coord.Session())
}

func TestCoordinator_SignIn_NoCachedAccountGoesInteractive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := testAccount("bob")

	f.client.EXPECT().Accounts(gomock.Any()).Return(nil, nil)
	f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	f.anchors.EXPECT().CurrentAnchor().Return(f.anchor, nil)
	f.client.EXPECT().AcquireTokenInteractive(gomock.Any(), testScopes, f.anchor).
		Return(resultFor(account, "interactive-token"), nil).Times(1)

	session, err := f.coord.SignIn(ctx)
	require.NoError(t, err)

	assert.True(t, session.IsAuthenticated)
	assert.Equal(t, "interactive-token", session.Token)
	require.NotNil(t, session.User)
	assert.Equal(t, "bob", session.User.ID)
}

func TestCoordinator_SignIn_InteractionRequiredFallsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cached := testAccount("carol")

	gomock.InOrder(
		f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{cached}, nil),
		f.client.EXPECT().AcquireTokenSilent(gomock.Any(), testScopes, cached).
			Return(auth.Result{}, fmt.Errorf("refresh token expired: %w", auth.ErrInteractionRequired)),
		f.anchors.EXPECT().CurrentAnchor().Return(f.anchor, nil),
		f.client.EXPECT().AcquireTokenInteractive(gomock.Any(), testScopes, f.anchor).
			Return(resultFor(cached, "fresh-token"), nil),
	)

	session, err := f.coord.SignIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", session.Token)
	assert.True(t, session.IsAuthenticated)
}

func TestCoordinator_SignIn_FatalSilentErrorPropagates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := testAccount("dave")
	boom := errors.New("authority unreachable")

	f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{account}, nil)
	f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), gomock.Any()).Return(auth.Result{}, boom)
	f.client.EXPECT().AcquireTokenInteractive(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	session, err := f.coord.SignIn(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var providerErr *auth.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "silent", providerErr.Op)

	assertEmpty(t, session)
	assertEmpty(t, f.coord.Session())
}

func TestCoordinator_SignIn_FailureClearsPreviousSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := testAccount("erin")

	f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{account}, nil).Times(2)
	gomock.InOrder(
		f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), account).
			Return(resultFor(account, "cached"), nil),
		f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), account).
			Return(auth.Result{}, auth.ErrInteractionRequired),
	)
	f.anchors.EXPECT().CurrentAnchor().Return(f.anchor, nil)
	f.client.EXPECT().AcquireTokenInteractive(gomock.Any(), gomock.Any(), f.anchor).
		Return(auth.Result{}, errors.New("user cancelled"))

	f.coord.UpdateFromCache(ctx)
	require.True(t, f.coord.Session().IsAuthenticated)

	_, err := f.coord.SignIn(ctx)
	require.Error(t, err)
	assertEmpty(t, f.coord.Session())
}

func TestCoordinator_SignIn_NoAnchor(t *testing.T) {
	tests := []struct {
		name     string
		anchor   auth.Anchor
		provider error
	}{
		{"nil anchor", nil, nil},
		{"provider error", nil, errors.New("no window")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			f.client.EXPECT().Accounts(gomock.Any()).Return(nil, nil)
			f.anchors.EXPECT().CurrentAnchor().Return(tc.anchor, tc.provider)
			f.client.EXPECT().AcquireTokenInteractive(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

			_, err := f.coord.SignIn(context.Background())
			assert.ErrorIs(t, err, auth.ErrNoAnchor)
			assertEmpty(t, f.coord.Session())
		})
	}
}

func TestCoordinator_SignIn_AccountListingFails(t *testing.T) {
	f := newFixture(t)

	f.client.EXPECT().Accounts(gomock.Any()).Return(nil, errors.New("cache locked"))

	_, err := f.coord.SignIn(context.Background())

	var providerErr *auth.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "accounts", providerErr.Op)
}

func TestCoordinator_SilentCallHasDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCredentialClient(ctrl)
	account := testAccount("frank")

	coord, err := auth.NewCoordinator(auth.CoordinatorConfig{
		Client:        client,
		Anchors:       mocks.NewMockAnchorProvider(ctrl),
		Scopes:        testScopes,
		SilentTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{account}, nil)
	client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), account).DoAndReturn(
		func(ctx context.Context, scopes []string, acct auth.Account) (auth.Result, error) {
			deadline, ok := ctx.Deadline()
			require.True(t, ok, "silent acquisition must be bounded")
			assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
			return resultFor(acct, "t"), nil
		})

	coord.UpdateFromCache(context.Background())
	assert.True(t, coord.Session().IsAuthenticated)
}

func TestCoordinator_UpdateFromCache_EmptyCache(t *testing.T) {
	f := newFixture(t)

	f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{}, nil)
	f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	f.coord.UpdateFromCache(context.Background())

	assertEmpty(t, f.coord.Session())
}

func TestCoordinator_UpdateFromCache_Invariants(t *testing.T) {
	account := testAccount("grace")

	type outcome struct {
		name     string
		accounts []auth.Account
		listErr  error
		result   auth.Result
		err      error
		signedIn bool
		authed   bool
	}

	outcomes := []outcome{
		{name: "token available", accounts: []auth.Account{account}, result: resultFor(account, "tok"), signedIn: true, authed: true},
		{name: "result without token", accounts: []auth.Account{account}, result: resultFor(account, ""), signedIn: true},
		{name: "result without account", accounts: []auth.Account{account}, result: auth.Result{AccessToken: "tok"}, signedIn: true, authed: true},
		{name: "interaction required", accounts: []auth.Account{account}, err: auth.ErrInteractionRequired},
		{name: "provider failure", accounts: []auth.Account{account}, err: errors.New("503")},
		{name: "listing failure", listErr: errors.New("locked")},
		{name: "no accounts"},
	}

	priors := []struct {
		name  string
		setup func(f *coordinatorFixture)
	}{
		{"empty", func(f *coordinatorFixture) {}},
		{"authenticated", func(f *coordinatorFixture) {
			f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{account}, nil)
			f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), account).Return(resultFor(account, "old"), nil)
			f.coord.UpdateFromCache(context.Background())
		}},
		{"signed in without token", func(f *coordinatorFixture) {
			f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{account}, nil)
			f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), account).Return(resultFor(account, ""), nil)
			f.coord.UpdateFromCache(context.Background())
		}},
	}

	for _, prior := range priors {
		for _, out := range outcomes {
			t.Run(prior.name+"/"+out.name, func(t *testing.T) {
				f := newFixture(t)
				prior.setup(f)
				assertInvariants(t, f.coord.Session())

				f.client.EXPECT().Accounts(gomock.Any()).Return(out.accounts, out.listErr)
				if len(out.accounts) > 0 {
					f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), account).Return(out.result, out.err)
				}

				f.coord.UpdateFromCache(context.Background())

				session := f.coord.Session()
				assertInvariants(t, session)
				assert.Equal(t, out.signedIn, session.IsSignedIn)
				assert.Equal(t, out.authed, session.IsAuthenticated)
				if !out.signedIn {
					assertEmpty(t, session)
				}
			})
		}
	}
}

func TestCoordinator_UpdateFromCache_Idempotent(t *testing.T) {
	f := newFixture(t)
	account := testAccount("heidi")
	result := resultFor(account, "same-token")

	f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{account}, nil).Times(2)
	f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), account).Return(result, nil).Times(2)

	f.coord.UpdateFromCache(context.Background())
	first := f.coord.Session()

	f.coord.UpdateFromCache(context.Background())
	second := f.coord.Session()

	assert.Equal(t, first, second)
}

func TestCoordinator_SessionSnapshotIsACopy(t *testing.T) {
	f := newFixture(t)
	account := testAccount("ivan")
	account.Claims = map[string]string{"oid": "123"}

	f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{account}, nil)
	f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), account).Return(resultFor(account, "tok"), nil)
	f.coord.UpdateFromCache(context.Background())

	snapshot := f.coord.Session()
	snapshot.User.Username = "mallory"
	snapshot.User.Claims["oid"] = "999"

	again := f.coord.Session()
	assert.Equal(t, "ivan@contoso.example", again.User.Username)
	assert.Equal(t, "123", again.User.Claims["oid"])
}

func TestCoordinator_SignOut_RemovesEveryAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testAccount("alice")
	bob := testAccount("bob")

	f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{alice, bob}, nil).Times(2)
	f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), alice).Return(resultFor(alice, "tok"), nil)
	f.coord.UpdateFromCache(ctx)
	require.True(t, f.coord.Session().IsSignedIn)

	gomock.InOrder(
		f.client.EXPECT().RemoveAccount(gomock.Any(), alice).Return(nil),
		f.client.EXPECT().RemoveAccount(gomock.Any(), bob).Return(nil),
		f.client.EXPECT().Accounts(gomock.Any()).Return(nil, nil),
	)

	require.NoError(t, f.coord.SignOut(ctx))
	assertEmpty(t, f.coord.Session())
}

func TestCoordinator_SignOut_ContinuesPastRemoveFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testAccount("alice")
	bob := testAccount("bob")

	f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{alice, bob}, nil)
	f.client.EXPECT().RemoveAccount(gomock.Any(), alice).Return(errors.New("keychain locked"))
	f.client.EXPECT().RemoveAccount(gomock.Any(), bob).Return(nil)
	// alice is still cached but needs interaction again
	f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{alice}, nil)
	f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), alice).Return(auth.Result{}, auth.ErrInteractionRequired)

	err := f.coord.SignOut(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keychain locked")
	assertEmpty(t, f.coord.Session())
}

func TestCoordinator_SignUp(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		account := testAccount("ivan")
		f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{account}, nil)
		f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), account).Return(resultFor(account, "token"), nil)

		_, err := f.coord.SignIn(ctx)
		require.NoError(t, err)
		require.True(t, f.coord.Session().IsAuthenticated)

		_, err = f.coord.SignUp(ctx)
		assert.ErrorIs(t, err, auth.ErrSignUpNotConfigured)
		assertEmpty(t, f.coord.Session())
	})

	t.Run("interactive against sign-up client", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockCredentialClient(ctrl)
		signUp := mocks.NewMockCredentialClient(ctrl)
		anchors := mocks.NewMockAnchorProvider(ctrl)
		anchor := mocks.NewMockAnchor(ctrl)
		account := testAccount("judy")

		coord, err := auth.NewCoordinator(auth.CoordinatorConfig{
			Client:       client,
			SignUpClient: signUp,
			Anchors:      anchors,
			Scopes:       testScopes,
		})
		require.NoError(t, err)

		anchors.EXPECT().CurrentAnchor().Return(anchor, nil)
		signUp.EXPECT().AcquireTokenInteractive(gomock.Any(), testScopes, anchor).Return(resultFor(account, "new-user-token"), nil)

		session, err := coord.SignUp(context.Background())
		require.NoError(t, err)
		assert.True(t, session.IsAuthenticated)
		assert.Equal(t, "judy", session.User.ID)
	})
}

func TestCoordinator_AccessToken(t *testing.T) {
	f := newFixture(t)
	account := testAccount("ken")

	gomock.InOrder(
		f.client.EXPECT().Accounts(gomock.Any()).Return([]auth.Account{account}, nil),
		f.client.EXPECT().AcquireTokenSilent(gomock.Any(), gomock.Any(), account).Return(resultFor(account, "api-token"), nil),
		f.client.EXPECT().Accounts(gomock.Any()).Return(nil, nil),
	)

	token, err := f.coord.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "api-token", token)

	_, err = f.coord.AccessToken(context.Background())
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

// serialClient is a CredentialClient that records how many calls overlap.
type serialClient struct {
	account auth.Account

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	mu       sync.Mutex
	removed  bool
	sequence int
}

func (c *serialClient) enter() func() {
	n := c.inFlight.Add(1)
	for {
		current := c.maxInFlight.Load()
		if n <= current || c.maxInFlight.CompareAndSwap(current, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return func() { c.inFlight.Add(-1) }
}

func (c *serialClient) Accounts(ctx context.Context) ([]auth.Account, error) {
	defer c.enter()()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return nil, nil
	}
	return []auth.Account{c.account}, nil
}

func (c *serialClient) AcquireTokenSilent(ctx context.Context, scopes []string, account auth.Account) (auth.Result, error) {
	defer c.enter()()
	c.mu.Lock()
	c.sequence++
	token := fmt.Sprintf("token-%d", c.sequence)
	c.mu.Unlock()
	return auth.Result{AccessToken: token, Account: account}, nil
}

func (c *serialClient) AcquireTokenInteractive(ctx context.Context, scopes []string, anchor auth.Anchor) (auth.Result, error) {
	defer c.enter()()
	c.mu.Lock()
	c.removed = false
	c.mu.Unlock()
	return auth.Result{AccessToken: "interactive", Account: c.account}, nil
}

func (c *serialClient) RemoveAccount(ctx context.Context, account auth.Account) error {
	defer c.enter()()
	c.mu.Lock()
	c.removed = true
	c.mu.Unlock()
	return nil
}

type staticAnchors struct{ anchor auth.Anchor }

func (s staticAnchors) CurrentAnchor() (auth.Anchor, error) { return s.anchor, nil }

type noopAnchor struct{}

func (noopAnchor) OpenURL(string) error { return nil }

func TestCoordinator_ConcurrentOperationsDoNotInterleave(t *testing.T) {
	client := &serialClient{account: testAccount("concurrent")}
	coord, err := auth.NewCoordinator(auth.CoordinatorConfig{
		Client:  client,
		Anchors: staticAnchors{anchor: noopAnchor{}},
		Scopes:  testScopes,
	})
	require.NoError(t, err)

	ctx := context.Background()
	stop := make(chan struct{})
	var readers sync.WaitGroup
	var violations atomic.Int32

	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := coord.Session()
				if (s.IsAuthenticated && (!s.IsSignedIn || s.Token == "")) || (s.IsSignedIn && s.User == nil) {
					violations.Add(1)
				}
			}
		}()
	}

	var writers sync.WaitGroup
	for i := 0; i < 12; i++ {
		writers.Add(1)
		go func(i int) {
			defer writers.Done()
			switch i % 3 {
			case 0:
				_, _ = coord.SignIn(ctx)
			case 1:
				coord.UpdateFromCache(ctx)
			default:
				_ = coord.SignOut(ctx)
			}
		}(i)
	}
	writers.Wait()
	close(stop)
	readers.Wait()

	assert.Equal(t, int32(1), client.maxInFlight.Load(), "operations must not overlap")
	assert.Zero(t, violations.Load(), "readers must never observe a broken session")
}
