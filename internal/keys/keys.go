// Package keys is the key-pair capability: private key generation, address
// derivation and detached ed25519 signatures over hex-encoded hashes.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/ton/wallet"
)

// Ed25519 keys are stored as hex-encoded 32 byte seeds. Addresses are the
// user-friendly form of a v4r2 wallet contract owned by the public key.
type Ed25519 struct {
	subwallet uint32
}

func NewEd25519() *Ed25519 {
	return &Ed25519{subwallet: wallet.DefaultSubwallet}
}

func (k *Ed25519) GeneratePrivateKey() (string, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return "", fmt.Errorf("generate seed: %w", err)
	}
	return hex.EncodeToString(seed), nil
}

func (k *Ed25519) PublicKey(privateKey string) (string, error) {
	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(priv.Public().(ed25519.PublicKey)), nil
}

func (k *Ed25519) Address(privateKey string) (string, error) {
	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return "", err
	}

	addr, err := wallet.AddressFromPubKey(priv.Public().(ed25519.PublicKey), wallet.V4R2, k.subwallet)
	if err != nil {
		return "", fmt.Errorf("derive address: %w", err)
	}
	return addr.String(), nil
}

// ValidateAddress reports whether addr is a well-formed user-friendly address.
func (k *Ed25519) ValidateAddress(addr string) error {
	if _, err := address.ParseAddr(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return nil
}

// Sign signs the raw bytes of a hex-encoded hash.
func (k *Ed25519) Sign(hash string, privateKey string) (string, error) {
	msg, err := hex.DecodeString(hash)
	if err != nil {
		return "", fmt.Errorf("invalid hash hex: %w", err)
	}
	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(ed25519.Sign(priv, msg)), nil
}

// Verify never errors: any malformed input is simply not a valid signature.
func (k *Ed25519) Verify(hash string, signature string, publicKey string) bool {
	msg, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	pub, err := hex.DecodeString(publicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

func parsePrivateKey(privateKey string) (ed25519.PrivateKey, error) {
	seed, err := hex.DecodeString(privateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid private key size: %d", len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
