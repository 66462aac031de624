package tokencache

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// DefaultCacheDir is the token cache directory relative to the home directory.
const DefaultCacheDir = ".config/stratus/cache"

// FileStore keeps blobs in files readable only by the owner.
//
// SECURITY:
//   - The directory is created with 0700 and files with 0600 permissions
//   - Files are replaced atomically so a crash never leaves half a cache
//   - With an encryption key, blobs are sealed with XChaCha20-Poly1305
type FileStore struct {
	mu   sync.Mutex
	dir  string
	aead cipher.AEAD
}

// NewFileStore creates a FileStore in dir (DefaultCacheDir when empty).
// encryptionKey is optional; see Options.EncryptionKey.
func NewFileStore(dir, encryptionKey string) (*FileStore, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, DefaultCacheDir)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create token cache directory: %w", err)
	}

	store := &FileStore{dir: dir}

	if encryptionKey != "" {
		aead, err := newAEAD(encryptionKey)
		if err != nil {
			return nil, err
		}
		store.aead = aead
	}

	return store, nil
}

func newAEAD(encoded string) (cipher.AEAD, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode token cache encryption key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("token cache encryption key must decode to %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return chacha20poly1305.NewX(key)
}

// Load reads and, if configured, opens the blob stored under key.
func (s *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// #nosec G304 -- path is derived from a hash of the key
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read token cache file: %w", err)
	}

	if s.aead == nil {
		return data, nil
	}
	return s.open(data)
}

// Save seals and atomically writes blob under key.
func (s *FileStore) Save(ctx context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := blob
	if s.aead != nil {
		sealed, err := s.seal(blob)
		if err != nil {
			return err
		}
		data = sealed
	}

	tmp, err := os.CreateTemp(s.dir, ".cache-*")
	if err != nil {
		return fmt.Errorf("failed to create token cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to restrict token cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token cache file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return fmt.Errorf("failed to replace token cache file: %w", err)
	}
	return nil
}

// Delete removes the file for key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token cache file: %w", err)
	}
	return nil
}

// Backend implements Store.
func (s *FileStore) Backend() string {
	if s.aead != nil {
		return BackendFile + " (encrypted)"
	}
	return BackendFile
}

// Path returns the file key is stored in.
func (s *FileStore) Path(key string) string {
	return s.path(key)
}

// Dir returns the cache directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// path uses a hash of key to get a filesystem-safe name.
func (s *FileStore) path(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(hash[:16])+".bin")
}

// seal returns nonce || ciphertext.
func (s *FileStore) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plain, nil), nil
}

func (s *FileStore) open(data []byte) ([]byte, error) {
	if len(data) < s.aead.NonceSize() {
		return nil, errors.New("token cache file is truncated")
	}
	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token cache: %w", err)
	}
	return plain, nil
}
