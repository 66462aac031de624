package oidc

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"stratus/internal/auth"
	"stratus/pkg/logging"
)

// tokenExpiryBuffer is subtracted from access token lifetimes so a token is
// never handed out just before it expires.
const tokenExpiryBuffer = 60 * time.Second

// Hooks loads and stores the serialized account cache. tokencache.Persistence
// implements it.
type Hooks interface {
	BeforeAccess(ctx context.Context) []byte
	AfterAccess(ctx context.Context, blob []byte)
}

// cacheEntry is everything known about one signed-in account.
type cacheEntry struct {
	Account      auth.Account `json:"account"`
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	IDToken      string       `json:"id_token,omitempty"`
	Expiry       time.Time    `json:"expiry,omitempty"`
	Scopes       []string     `json:"scopes,omitempty"`
	LastUsed     time.Time    `json:"last_used"`
}

// validFor reports whether the cached access token covers scopes and is not
// about to expire.
func (e *cacheEntry) validFor(scopes []string, now time.Time) bool {
	if e.AccessToken == "" {
		return false
	}
	if !e.Expiry.IsZero() && !now.Add(tokenExpiryBuffer).Before(e.Expiry) {
		return false
	}
	for _, s := range scopes {
		if isOIDCScope(s) {
			continue
		}
		if !slices.Contains(e.Scopes, s) {
			return false
		}
	}
	return true
}

func (e *cacheEntry) result() auth.Result {
	return auth.Result{
		AccessToken: e.AccessToken,
		Account:     e.Account,
		ExpiresOn:   e.Expiry,
		Scopes:      slices.Clone(e.Scopes),
	}
}

// accountCache is the serialized form kept in the token cache store.
type accountCache struct {
	Version  int                    `json:"version"`
	Accounts map[string]*cacheEntry `json:"accounts"`
}

const cacheVersion = 1

func newAccountCache() *accountCache {
	return &accountCache{Version: cacheVersion, Accounts: map[string]*cacheEntry{}}
}

// load reads the cache through hooks. Unreadable blobs are treated as empty.
func load(ctx context.Context, hooks Hooks) *accountCache {
	c := newAccountCache()
	blob := hooks.BeforeAccess(ctx)
	if len(blob) == 0 {
		return c
	}
	if err := json.Unmarshal(blob, c); err != nil {
		logging.Warn(subsystem, "Discarding unreadable account cache: %v", err)
		return newAccountCache()
	}
	if c.Accounts == nil {
		c.Accounts = map[string]*cacheEntry{}
	}
	return c
}

// save writes the cache through hooks.
func (c *accountCache) save(ctx context.Context, hooks Hooks) {
	blob, err := json.Marshal(c)
	if err != nil {
		logging.Warn(subsystem, "Could not serialize account cache: %v", err)
		return
	}
	hooks.AfterAccess(ctx, blob)
}

// sorted returns the entries, most recently used first.
func (c *accountCache) sorted() []*cacheEntry {
	entries := make([]*cacheEntry, 0, len(c.Accounts))
	for _, e := range c.Accounts {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *cacheEntry) int {
		if cmp := b.LastUsed.Compare(a.LastUsed); cmp != 0 {
			return cmp
		}
		if a.Account.ID < b.Account.ID {
			return -1
		}
		if a.Account.ID > b.Account.ID {
			return 1
		}
		return 0
	})
	return entries
}

func isOIDCScope(scope string) bool {
	switch scope {
	case "openid", "profile", "email", "offline_access":
		return true
	}
	return false
}
