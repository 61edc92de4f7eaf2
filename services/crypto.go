package services

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Crypto versiegelt die API-Keys der Community-Reviewer für die Ablage in der
// Datenbank. Der Schlüssel wird per SHA-256 aus dem konfigurierten Secret
// abgeleitet.
type Crypto struct {
	aead cipher.AEAD
}

// NewCrypto erstellt den Verschlüsselungs-Service aus dem Plattform-Secret.
func NewCrypto(secret string) (*Crypto, error) {
	key := sha256.Sum256([]byte(secret))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to initialize api key cipher: %w", err)
	}
	return &Crypto{aead: aead}, nil
}

// EncryptAPIKey verschlüsselt einen API-Key für die Ablage. Leere Eingaben
// bleiben leer.
func (c *Crypto) EncryptAPIKey(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// DecryptAPIKey entschlüsselt einen abgelegten API-Key. Leere Eingaben
// bleiben leer.
func (c *Crypto) DecryptAPIKey(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}
	sealed, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("stored api key is not valid base64: %w", err)
	}
	if len(sealed) < c.aead.NonceSize() {
		return "", fmt.Errorf("stored api key is truncated")
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt stored api key: %w", err)
	}
	return string(plain), nil
}
