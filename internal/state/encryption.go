package state

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

// EncryptionKeyEnvVar supplies the state encryption key when the
// backend configuration does not carry one.
const EncryptionKeyEnvVar = "TERRALITE_STATE_ENCRYPTION_KEY"

const encryptedHeader = "# TERRALITE_ENCRYPTED_STATE\n"

// stateCipher seals and opens state documents with AES-256-GCM. A nil
// cipher leaves documents in plaintext, so callers never branch on
// whether encryption is configured.
type stateCipher struct {
	key []byte
}

// newStateCipher builds a cipher from the backend's configured key,
// falling back to TERRALITE_STATE_ENCRYPTION_KEY. Returns nil when
// neither is set.
func newStateCipher(configured string) *stateCipher {
	raw := configured
	if raw == "" {
		raw = os.Getenv(EncryptionKeyEnvVar)
	}
	if raw == "" {
		return nil
	}

	// AES-256 needs exactly 32 bytes: shorter keys are zero-padded,
	// longer keys truncated.
	key := make([]byte, 32)
	copy(key, raw)
	return &stateCipher{key: key}
}

func (c *stateCipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// seal encrypts a plaintext state document and tags it with the
// encrypted-state header.
func (c *stateCipher) seal(content []byte) ([]byte, error) {
	if c == nil {
		return content, nil
	}

	gcm, err := c.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, content, nil)
	return []byte(encryptedHeader + base64.StdEncoding.EncodeToString(sealed) + "\n"), nil
}

// open decrypts an encrypted state document; plaintext documents pass
// through untouched.
func (c *stateCipher) open(content []byte) ([]byte, error) {
	if !IsEncrypted(content) {
		return content, nil
	}
	if c == nil {
		return nil, fmt.Errorf("state is encrypted but no key is configured (set %s or the backend's encryption_key)", EncryptionKeyEnvVar)
	}

	encoded := strings.TrimSpace(strings.TrimPrefix(string(content), encryptedHeader))
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted state: %w", err)
	}

	gcm, err := c.aead()
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("encrypted state is truncated")
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt state (wrong key?): %w", err)
	}
	return plaintext, nil
}

// IsEncrypted reports whether a state document is encrypted at rest.
func IsEncrypted(content []byte) bool {
	return strings.HasPrefix(string(content), encryptedHeader)
}
