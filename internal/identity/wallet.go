package identity

import (
	"fmt"

	"github.com/digitalme/backend/internal/did"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/vault"
	"github.com/samber/lo"
)

const WalletVersion = "1.0"

// Wallet holds DID accounts and routes claims to them by owner DID.
//
// didMap always satisfies didMap[accounts[i].DID()] == i. Like Account, a
// Wallet is not safe for concurrent mutation.
type Wallet struct {
	Name    string
	Version string
	Scrypt  vault.ScryptParams

	keys     KeyPair
	accounts []*Account
	didMap   map[string]int
}

func NewWallet(name string, keys KeyPair, params vault.ScryptParams) *Wallet {
	return &Wallet{
		Name:    name,
		Version: WalletVersion,
		Scrypt:  params,
		keys:    keys,
		didMap:  make(map[string]int),
	}
}

// WalletFromRecord rebuilds a wallet from its exported form. The DID map is
// recomputed from the accounts; the one stored in the record is ignored.
func WalletFromRecord(rec models.WalletRecord, keys KeyPair) (*Wallet, error) {
	w := NewWallet(rec.Name, keys, rec.Scrypt)
	if rec.Version != "" {
		w.Version = rec.Version
	}

	for i, acc := range rec.Accounts {
		if _, err := w.AddAccountRecord(acc, ""); err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
	}
	return w, nil
}

// AddAccount appends an account and registers its DID. The returned index
// equals the number of accounts before the call.
func (w *Wallet) AddAccount(acc *Account) (int, error) {
	if acc.Network() == "" {
		return 0, ErrMissingNetwork
	}

	d := acc.DID()
	if _, ok := w.didMap[d]; ok {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateDID, d)
	}

	idx := len(w.accounts)
	w.accounts = append(w.accounts, acc)
	w.didMap[d] = idx
	return idx, nil
}

// AddAccountRecord wraps a persisted account. An empty network falls back to
// the one stored in the record.
func (w *Wallet) AddAccountRecord(rec models.AccountRecord, network did.Network) (int, error) {
	if network == "" {
		network = did.Network(rec.Network)
	}
	if network == "" {
		return 0, fmt.Errorf("%w: use an explicit DID network for %s", ErrMissingNetwork, rec.Address)
	}
	return w.AddAccount(AccountFromRecord(rec, network))
}

// CreateDID generates a new key pair, adds it as an account and returns its DID.
func (w *Wallet) CreateDID(network did.Network) (string, error) {
	privateKey, err := w.keys.GeneratePrivateKey()
	if err != nil {
		return "", err
	}

	acc, err := NewAccount(w.keys, privateKey, network)
	if err != nil {
		return "", err
	}
	if _, err := w.AddAccount(acc); err != nil {
		return "", err
	}
	return acc.DID(), nil
}

func (w *Wallet) AddClaim(claim *models.Claim) error {
	if claim == nil {
		return ErrInvalidClaim
	}

	acc, ok := w.GetAccountByDID(claim.OwnerDID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOwner, claim.OwnerDID)
	}
	return acc.AddClaim(claim)
}

// GetClaim scans accounts in order; the first match wins.
func (w *Wallet) GetClaim(id string) (*models.Claim, error) {
	for _, acc := range w.accounts {
		c, err := acc.GetClaim(id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", acc.DID(), err)
		}
		if c != nil {
			return c, nil
		}
	}
	return nil, nil
}

// GetAllClaims returns an empty slice for a DID this wallet does not hold.
func (w *Wallet) GetAllClaims(d string) ([]*models.Claim, error) {
	acc, ok := w.GetAccountByDID(d)
	if !ok {
		return []*models.Claim{}, nil
	}
	return acc.GetAllClaims()
}

// GetAllDIDs lists DIDs in account order.
func (w *Wallet) GetAllDIDs() []string {
	return lo.Map(w.accounts, func(acc *Account, _ int) string {
		return acc.DID()
	})
}

func (w *Wallet) GetDID(index int) (string, bool) {
	if index < 0 || index >= len(w.accounts) {
		return "", false
	}
	return w.accounts[index].DID(), true
}

func (w *Wallet) GetAccountByDID(d string) (*Account, bool) {
	idx, ok := w.didMap[d]
	if !ok || idx >= len(w.accounts) {
		return nil, false
	}
	return w.accounts[idx], true
}

func (w *Wallet) Accounts() []*Account {
	return append([]*Account(nil), w.accounts...)
}

// Encrypt returns a locked copy of the wallet with every account encrypted.
func (w *Wallet) Encrypt(passphrase string) (*Wallet, error) {
	out := NewWallet(w.Name, w.keys, w.Scrypt)
	out.Version = w.Version

	for _, acc := range w.accounts {
		enc, err := acc.Encrypt(passphrase, w.Scrypt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", acc.DID(), err)
		}
		if _, err := out.AddAccount(enc); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Decrypt unlocks every account. Accounts are decrypted into copies first,
// so on failure the wallet is left exactly as it was.
func (w *Wallet) Decrypt(passphrase string) error {
	unlocked := make([]Account, len(w.accounts))
	for i, acc := range w.accounts {
		unlocked[i] = *acc
		if _, err := unlocked[i].Decrypt(passphrase, w.Scrypt); err != nil {
			return fmt.Errorf("%s: %w", acc.DID(), err)
		}
	}
	for i, acc := range w.accounts {
		*acc = unlocked[i]
	}
	return nil
}

// Export produces the persisted form. Every account must have been encrypted.
func (w *Wallet) Export() (*models.WalletRecord, error) {
	rec := &models.WalletRecord{
		Name:     w.Name,
		Version:  w.Version,
		Scrypt:   w.Scrypt,
		Accounts: make([]models.AccountRecord, 0, len(w.accounts)),
		DIDMap:   make(map[string]int, len(w.didMap)),
	}

	for i, acc := range w.accounts {
		ar, err := acc.Export()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", acc.DID(), err)
		}
		rec.Accounts = append(rec.Accounts, ar)
		rec.DIDMap[acc.DID()] = i
	}
	return rec, nil
}
