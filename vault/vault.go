// Package vault seals raw credential tokens at rest. Tokens are encrypted
// with XChaCha20-Poly1305 under a single process-wide key and stored as
// base64url strings; a sha256 fingerprint of the plaintext is kept alongside
// for deduplication and audit.
package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// DecryptionError is an error signaling that a ciphertext could not be
// decrypted, either because it was tampered with or because the key is wrong
type DecryptionError string

// Error implements the error interface
func (e DecryptionError) Error() string {
	return string(e)
}

// DecryptionErrorFmt returns a DecryptionError from the passed format string and parameters
func DecryptionErrorFmt(format string, params ...any) DecryptionError {
	return DecryptionError(fmt.Sprintf(format, params...))
}

// Vault encrypts and decrypts strings with a fixed symmetric key.
type Vault struct {
	aead cipher.AEAD
}

// New creates a Vault from a raw key of chacha20poly1305.KeySize bytes.
func New(key []byte) (*Vault, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.Wrap(err, "vault: invalid key")
	}
	return &Vault{aead: aead}, nil
}

// NewFromBase64 creates a Vault from a base64url-encoded key, with or without
// padding.
func NewFromBase64(key string) (*Vault, error) {
	raw, err := decodeBase64(key)
	if err != nil {
		return nil, errors.Wrap(err, "vault: key is not valid base64url")
	}
	return New(raw)
}

// GenerateKey returns a fresh random key, base64url-encoded, suitable for
// NewFromBase64.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", errors.Wrap(err, "vault: could not generate key")
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}

// Encrypt seals the plaintext and returns a base64url string carrying nonce
// and ciphertext.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "vault: could not generate nonce")
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a string produced by Encrypt. It returns a DecryptionError
// when the input is not valid base64url, is truncated, or fails
// authentication.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	sealed, err := decodeBase64(ciphertext)
	if err != nil {
		return "", DecryptionErrorFmt("ciphertext is not valid base64url: %s", err.Error())
	}
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return "", DecryptionError("ciphertext too short")
	}
	nonce, box := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plaintext, err := v.aead.Open(nil, nonce, box, nil)
	if err != nil {
		return "", DecryptionError("decryption failed, wrong key or tampered ciphertext")
	}
	return string(plaintext), nil
}

// Fingerprint returns the hex-encoded sha256 digest of the given string.
func Fingerprint(s string) string {
	digest := sha256.Sum256([]byte(s))
	return hex.EncodeToString(digest[:])
}

func decodeBase64(s string) ([]byte, error) {
	if raw, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return raw, nil
	}
	return base64.URLEncoding.DecodeString(s)
}
