// Package encryption seals strings with an AEAD cipher. Drafts holding
// sensitive fields are encrypted at rest through draft.EncryptedCodec.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Encryptor encrypts and decrypts strings. Ciphertexts are base64 text so
// they can be stored anywhere a draft value can.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Algorithm represents supported encryption algorithms.
type Algorithm string

const (
	AlgorithmAESGCM   Algorithm = "aes-256-gcm"
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// Config selects the algorithm and secret for an Encryptor.
type Config struct {
	Enabled   bool      `yaml:"enabled" mapstructure:"enabled"`
	Algorithm Algorithm `yaml:"algorithm" mapstructure:"algorithm" validate:"omitempty,oneof=aes-256-gcm chacha20-poly1305"`
	Key       string    `yaml:"key" mapstructure:"key"`
}

// ApplyDefaults defaults to ChaCha20-Poly1305.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmChaCha20
	}
}

// Validate requires a key when encryption is enabled.
func (c *Config) Validate() error {
	if c.Enabled && len(c.Key) < 16 {
		return fmt.Errorf("encryption.key must be at least 16 characters when encryption is enabled")
	}
	switch c.Algorithm {
	case AlgorithmAESGCM, AlgorithmChaCha20:
		return nil
	default:
		return fmt.Errorf("encryption.algorithm must be one of [%s %s] (got: %s)", AlgorithmAESGCM, AlgorithmChaCha20, c.Algorithm)
	}
}

// New creates an Encryptor for alg. The key is hashed with SHA-256 to the
// 32 bytes both algorithms need.
func New(key string, alg Algorithm) (Encryptor, error) {
	sum := sha256.Sum256([]byte(key))

	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case AlgorithmChaCha20, "":
		aead, err = chacha20poly1305.New(sum[:])
	case AlgorithmAESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(sum[:]); err == nil {
			aead, err = cipher.NewGCM(block)
		}
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", alg)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s cipher: %w", alg, err)
	}
	return &aeadEncryptor{aead: aead}, nil
}

// NewFromConfig builds the Encryptor described by cfg.
func NewFromConfig(cfg Config) (Encryptor, error) {
	return New(cfg.Key, cfg.Algorithm)
}

type aeadEncryptor struct {
	aead cipher.AEAD
}

// Encrypt prefixes a random nonce and returns base64(nonce|ciphertext).
func (e *aeadEncryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (e *aeadEncryptor) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}
	plaintext, err := e.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}
