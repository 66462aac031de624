package tokencache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultKey is the key the token cache blob is stored under.
const DefaultKey = "msal_token_cache"

// ErrNotFound is returned by Store.Load when nothing is stored under the key.
var ErrNotFound = errors.New("token cache not found")

// Store is a secure key/value store for serialized token caches.
type Store interface {
	// Load returns the blob stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores blob under key, replacing any previous value.
	Save(ctx context.Context, key string, blob []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Backend names the storage backend for logs and status output.
	Backend() string
}

// Backend names accepted by Open.
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
	BackendRedis   = "redis"
	BackendMemory  = "memory"
)

// Options selects and configures a Store.
type Options struct {
	// Backend is one of BackendFile, BackendKeyring, BackendRedis, BackendMemory.
	Backend string

	// Dir is the FileStore directory.
	Dir string

	// EncryptionKey is a base64 encoded 32 byte key. When set, FileStore
	// seals blobs with XChaCha20-Poly1305.
	EncryptionKey string

	// KeyringService is the service name entries are stored under.
	KeyringService string

	// RedisURL is a redis:// or rediss:// URL.
	RedisURL string

	// RedisPrefix is prepended to every Redis key.
	RedisPrefix string

	// TTL expires Redis and memory entries. Zero keeps them forever.
	TTL time.Duration
}

// Open creates the Store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendFile:
		return NewFileStore(opts.Dir, opts.EncryptionKey)
	case BackendKeyring:
		return NewKeyringStore(opts.KeyringService), nil
	case BackendRedis:
		return NewRedisStore(ctx, RedisConfig{URL: opts.RedisURL, Prefix: opts.RedisPrefix, TTL: opts.TTL})
	case BackendMemory:
		return NewMemoryStore(opts.TTL), nil
	default:
		return nil, fmt.Errorf("unknown token cache backend %q", opts.Backend)
	}
}
