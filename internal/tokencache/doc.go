// Package tokencache persists the identity provider's serialized token cache.
//
// A Store keeps opaque blobs by key in one backend: an owner-only file
// (optionally sealed with XChaCha20-Poly1305), the OS keyring, Redis, or process
// memory. Persistence sits between a Store and a credential client and
// implements the before-access and after-access hooks: the blob is loaded into
// the client before every cache access and written back after it.
//
// SECURITY: blobs contain refresh tokens. Their contents are never logged; only
// the key, backend and size appear in SECURITY_AUDIT log lines.
package tokencache
