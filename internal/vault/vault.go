// Package vault encrypts small payloads (private keys, claim sets) under a
// passphrase. Blobs are base64(salt || nonce || ciphertext); the key is derived
// with scrypt and the payload sealed with XChaCha20-Poly1305.
package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const saltSize = 16

// ScryptParams are the KDF cost parameters. They are persisted next to the
// blobs they produced, decryption must use the same values.
type ScryptParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

var (
	// DefaultScryptParams match the NEP-2 defaults.
	DefaultScryptParams = ScryptParams{N: 16384, R: 8, P: 8}

	// LightScryptParams are cheap enough for tests and local tooling.
	LightScryptParams = ScryptParams{N: 1024, R: 8, P: 1}
)

var ErrDecrypt = errors.New("vault: wrong passphrase or corrupt ciphertext")

// Encrypt seals plaintext under a key derived from passphrase.
func Encrypt(plaintext []byte, passphrase string, params ScryptParams) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	aead, err := newAEAD(passphrase, salt, params)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, salt)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a blob produced by Encrypt. Any failure past KDF parameter
// validation is reported as ErrDecrypt.
func Decrypt(blob string, passphrase string, params ScryptParams) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < saltSize+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("%w: blob too short", ErrDecrypt)
	}

	salt := raw[:saltSize]
	aead, err := newAEAD(passphrase, salt, params)
	if err != nil {
		return nil, err
	}

	nonce := raw[saltSize : saltSize+aead.NonceSize()]
	plaintext, err := aead.Open(nil, nonce, raw[saltSize+aead.NonceSize():], salt)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func newAEAD(passphrase string, salt []byte, params ScryptParams) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return aead, nil
}
