// Package crypto seals DNS provider credentials for storage.
//
// Ciphertext layout: base64(nonce || AES-256-GCM(plaintext) || tag).
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrKeyTooShort is returned when the configured secret is too short.
	ErrKeyTooShort = errors.New("encryption key must be at least 16 characters")

	// ErrInvalidCiphertext is returned when the input is not valid base64 or is truncated.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrDecryptionFailed is returned on authentication tag mismatch (wrong key or tampered data).
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")
)

const keyInfo = "go_subdns credential codec v1"

// Codec encrypts and decrypts credential blobs with a key derived from the process secret
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives a 32-byte key from secret and prepares the AEAD
func NewCodec(secret string) (*Codec, error) {
	if len(secret) < 16 {
		return nil, ErrKeyTooShort
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: gcm}, nil
}

// Encrypt seals plaintext with a fresh random nonce
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return "", ErrInvalidCiphertext
	}

	nonce, body := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// EncryptCredentials serializes a credential map to JSON and seals it
func (c *Codec) EncryptCredentials(creds map[string]string) (string, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}
	return c.Encrypt(string(data))
}

// DecryptCredentials opens a sealed credential map
func (c *Codec) DecryptCredentials(ciphertext string) (map[string]string, error) {
	plaintext, err := c.Decrypt(ciphertext)
	if err != nil {
		return nil, err
	}

	creds := make(map[string]string)
	if err := json.Unmarshal([]byte(plaintext), &creds); err != nil {
		return nil, fmt.Errorf("%w: credentials are not a JSON object", ErrInvalidCiphertext)
	}
	return creds, nil
}
