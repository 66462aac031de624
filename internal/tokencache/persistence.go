package tokencache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"

	"stratus/pkg/logging"
)

const subsystem = "TokenCache"

// Persistence connects a credential client's in-memory cache to a Store.
//
// BeforeAccess loads the blob before each cache access and AfterAccess writes
// it back. Neither ever fails the caller: a load failure yields an empty cache,
// and a blob that could not be saved is kept and retried on the next access.
type Persistence struct {
	store Store
	key   string

	mu      sync.Mutex
	pending []byte
	dirty   bool
	last    []byte
}

// NewPersistence creates hooks for key in store (DefaultKey when empty).
func NewPersistence(store Store, key string) *Persistence {
	if key == "" {
		key = DefaultKey
	}
	return &Persistence{store: store, key: key}
}

// BeforeAccess returns the blob the client should load. It is empty when
// nothing is stored or the store failed.
func (p *Persistence) BeforeAccess(ctx context.Context) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dirty {
		// The unsaved blob is newer than whatever the store holds.
		blob := slices.Clone(p.pending)
		p.flushLocked(ctx)
		return blob
	}

	blob, err := p.store.Load(ctx, p.key)
	switch {
	case errors.Is(err, ErrNotFound):
		logging.Debug(subsystem, "No token cache stored in %s", p.store.Backend())
		p.last = nil
		return nil
	case err != nil:
		slog.Warn("SECURITY_AUDIT: Token cache load failed",
			"event", "token_cache_load_failed",
			"backend", p.store.Backend(),
			"key", p.key,
			"error", err.Error(),
		)
		return nil
	}

	p.last = slices.Clone(blob)
	logging.Debug(subsystem, "Loaded token cache (%d bytes) from %s", len(blob), p.store.Backend())
	return blob
}

// AfterAccess persists blob. Unchanged blobs are not rewritten.
func (p *Persistence) AfterAccess(ctx context.Context, blob []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.dirty && p.last != nil && bytes.Equal(p.last, blob) {
		return
	}

	p.pending = slices.Clone(blob)
	p.dirty = true
	p.flushLocked(ctx)
}

// flushLocked tries to save the pending blob. REQUIRES: p.mu held.
func (p *Persistence) flushLocked(ctx context.Context) {
	if err := p.store.Save(ctx, p.key, p.pending); err != nil {
		slog.Warn("SECURITY_AUDIT: Token cache save failed, will retry on next access",
			"event", "token_cache_save_failed",
			"backend", p.store.Backend(),
			"key", p.key,
			"error", err.Error(),
		)
		return
	}

	slog.Info("SECURITY_AUDIT: Token cache saved",
		"event", "token_cache_saved",
		"backend", p.store.Backend(),
		"key", p.key,
		"size", len(p.pending),
	)
	p.last = p.pending
	p.pending = nil
	p.dirty = false
}

// Pending reports whether a blob is waiting to be saved.
func (p *Persistence) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

// Clear deletes the stored blob and drops any pending save.
func (p *Persistence) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = nil
	p.dirty = false
	p.last = nil

	if err := p.store.Delete(ctx, p.key); err != nil {
		slog.Warn("SECURITY_AUDIT: Token cache deletion failed",
			"event", "token_cache_delete_failed",
			"backend", p.store.Backend(),
			"key", p.key,
			"error", err.Error(),
		)
		return err
	}

	slog.Info("SECURITY_AUDIT: Token cache cleared",
		"event", "token_cache_cleared",
		"backend", p.store.Backend(),
		"key", p.key,
	)
	return nil
}

// emptyCache is the serialized form of a cache with no entries.
var emptyCache = []byte("{}")

// Replace implements cache.ExportReplace. It runs before MSAL reads its cache.
// A missing or unreadable blob resets the client to an empty cache so entries
// removed by another process do not linger in memory.
func (p *Persistence) Replace(ctx context.Context, c cache.Unmarshaler, _ cache.ReplaceHints) error {
	blob := p.BeforeAccess(ctx)
	if len(blob) == 0 {
		blob = emptyCache
	}
	if err := c.Unmarshal(blob); err != nil {
		logging.Warn(subsystem, "Discarding unreadable token cache: %v", err)
		if err := c.Unmarshal(emptyCache); err != nil {
			logging.Warn(subsystem, "Could not reset token cache: %v", err)
		}
	}
	return nil
}

// Export implements cache.ExportReplace. It runs after MSAL changes its cache.
func (p *Persistence) Export(ctx context.Context, c cache.Marshaler, _ cache.ExportHints) error {
	blob, err := c.Marshal()
	if err != nil {
		logging.Warn(subsystem, "Could not serialize token cache: %v", err)
		return nil
	}
	p.AfterAccess(ctx, blob)
	return nil
}

var _ cache.ExportReplace = (*Persistence)(nil)
