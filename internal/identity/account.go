package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/digitalme/backend/internal/did"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/vault"
)

// KeyPair is the subset of the key capability an account needs.
type KeyPair interface {
	GeneratePrivateKey() (string, error)
	Address(privateKey string) (string, error)
}

// Account is a single DID: its key material and the claims issued to it.
//
// A locked account only carries encrypted blobs; claim operations fail with
// ErrLocked until Decrypt succeeds. Accounts are not safe for concurrent
// mutation.
type Account struct {
	Address   string
	Label     string
	IsDefault bool

	network         did.Network
	privateKey      string
	encryptedKey    string
	claims          map[string]*models.Claim
	encryptedClaims string
	locked          bool
}

// NewAccount wraps a plaintext private key. The account starts unlocked.
func NewAccount(kp KeyPair, privateKey string, network did.Network) (*Account, error) {
	if network == "" {
		return nil, ErrMissingNetwork
	}

	addr, err := kp.Address(privateKey)
	if err != nil {
		return nil, fmt.Errorf("derive account address: %w", err)
	}

	return &Account{
		Address:    addr,
		Label:      addr,
		network:    network,
		privateKey: privateKey,
		claims:     make(map[string]*models.Claim),
	}, nil
}

// AccountFromRecord restores an exported account. It is locked whenever the
// record carries an encrypted key or an encrypted claim set.
func AccountFromRecord(rec models.AccountRecord, network did.Network) *Account {
	return &Account{
		Address:         rec.Address,
		Label:           rec.Label,
		IsDefault:       rec.IsDefault,
		network:         network,
		encryptedKey:    rec.Key,
		encryptedClaims: rec.Claims,
		claims:          make(map[string]*models.Claim),
		locked:          rec.Key != "" || rec.Claims != "",
	}
}

func (a *Account) DID() string {
	return did.Format(a.network, a.Address)
}

func (a *Account) Network() did.Network {
	return a.network
}

func (a *Account) IsLocked() bool {
	return a.locked
}

// PrivateKey returns the plaintext key of an unlocked account.
func (a *Account) PrivateKey() (string, error) {
	if a.locked {
		return "", ErrLocked
	}
	return a.privateKey, nil
}

func (a *Account) AddClaim(claim *models.Claim) error {
	if a.locked {
		return ErrLocked
	}
	if claim == nil || claim.ID == "" {
		return ErrInvalidClaim
	}
	if _, ok := a.claims[claim.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateClaim, claim.ID)
	}

	a.claims[claim.ID] = claim
	return nil
}

// GetClaim returns nil without error when the id is unknown.
func (a *Account) GetClaim(id string) (*models.Claim, error) {
	if a.locked {
		return nil, ErrLocked
	}
	return a.claims[id], nil
}

// GetAllClaims returns the claims ordered by id.
func (a *Account) GetAllClaims() ([]*models.Claim, error) {
	if a.locked {
		return nil, ErrLocked
	}

	out := make([]*models.Claim, 0, len(a.claims))
	for _, c := range a.claims {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Encrypt returns a locked copy carrying the encrypted private key and the
// encrypted claim set. The receiver is left untouched.
func (a *Account) Encrypt(passphrase string, params vault.ScryptParams) (*Account, error) {
	if a.locked {
		return nil, ErrLocked
	}

	encKey, err := vault.Encrypt([]byte(a.privateKey), passphrase, params)
	if err != nil {
		return nil, fmt.Errorf("encrypt private key: %w", err)
	}

	// encoding/json sorts map keys, so the plaintext is canonical.
	payload, err := json.Marshal(a.claims)
	if err != nil {
		return nil, fmt.Errorf("marshal claims: %w", err)
	}
	encClaims, err := vault.Encrypt(payload, passphrase, params)
	if err != nil {
		return nil, fmt.Errorf("encrypt claims: %w", err)
	}

	return &Account{
		Address:         a.Address,
		Label:           a.Label,
		IsDefault:       a.IsDefault,
		network:         a.network,
		encryptedKey:    encKey,
		encryptedClaims: encClaims,
		claims:          make(map[string]*models.Claim),
		locked:          true,
	}, nil
}

// Decrypt unlocks the account in place and returns it. An unlocked account
// is returned as is, so claims added since the last Encrypt are kept.
func (a *Account) Decrypt(passphrase string, params vault.ScryptParams) (*Account, error) {
	if !a.locked {
		return a, nil
	}

	privateKey := a.privateKey
	if a.encryptedKey != "" {
		plain, err := vault.Decrypt(a.encryptedKey, passphrase, params)
		if err != nil {
			return nil, decryptionError("private key", err)
		}
		privateKey = string(plain)
	}

	claims := make(map[string]*models.Claim)
	if a.encryptedClaims != "" {
		plain, err := vault.Decrypt(a.encryptedClaims, passphrase, params)
		if err != nil {
			return nil, decryptionError("claims", err)
		}
		if claims, err = decodeClaims(plain); err != nil {
			return nil, fmt.Errorf("%w: parse claims: %v", ErrDecryption, err)
		}
	}

	a.privateKey = privateKey
	a.claims = claims
	a.locked = false
	return a, nil
}

// Export requires that the account has been encrypted at some point. The
// claims blob is the one produced by the last Encrypt in this lineage.
func (a *Account) Export() (models.AccountRecord, error) {
	if a.encryptedClaims == "" {
		return models.AccountRecord{}, ErrNotEncrypted
	}

	return models.AccountRecord{
		Address:   a.Address,
		Label:     a.Label,
		IsDefault: a.IsDefault,
		Key:       a.encryptedKey,
		Network:   string(a.network),
		Claims:    a.encryptedClaims,
	}, nil
}

func decryptionError(what string, err error) error {
	if errors.Is(err, vault.ErrDecrypt) {
		return fmt.Errorf("%w: %s", ErrDecryption, what)
	}
	return fmt.Errorf("decrypt %s: %w", what, err)
}
