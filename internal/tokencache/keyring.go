package tokencache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the service name used in the OS keyring.
const DefaultKeyringService = "stratus"

// KeyringStore keeps blobs in the OS keyring (Keychain, Secret Service,
// Windows Credential Manager). Blobs are base64 encoded because keyring
// secrets are strings.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a KeyringStore for service.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

// Load implements Store.
func (s *KeyringStore) Load(ctx context.Context, key string) ([]byte, error) {
	secret, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read keyring entry: %w", err)
	}

	blob, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode keyring entry: %w", err)
	}
	return blob, nil
}

// Save implements Store.
func (s *KeyringStore) Save(ctx context.Context, key string, blob []byte) error {
	if err := keyring.Set(s.service, key, base64.StdEncoding.EncodeToString(blob)); err != nil {
		return fmt.Errorf("failed to write keyring entry: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *KeyringStore) Delete(ctx context.Context, key string) error {
	err := keyring.Delete(s.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to remove keyring entry: %w", err)
	}
	return nil
}

// Backend implements Store.
func (s *KeyringStore) Backend() string {
	return BackendKeyring
}
