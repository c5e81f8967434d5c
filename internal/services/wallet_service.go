package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/digitalme/backend/internal/did"
	"github.com/digitalme/backend/internal/events"
	"github.com/digitalme/backend/internal/identity"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/repositories"
	"github.com/digitalme/backend/internal/vault"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WalletStore persists exported holder wallets. Get returns
// repositories.ErrNotFound for an unknown holder.
type WalletStore interface {
	Get(ctx context.Context, holderID uuid.UUID) (*models.HolderWallet, error)
	Save(ctx context.Context, holderID uuid.UUID, rec models.WalletRecord) error
}

type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

// WalletService is the holder side: a server-kept encrypted wallet per holder.
// The passphrase is supplied on every call and never stored.
type WalletService struct {
	store     WalletStore
	audit     AuditLogger
	locker    Locker
	publisher events.Publisher
	keys      identity.KeyPair
	network   did.Network
	scrypt    vault.ScryptParams
	log       *zap.Logger
}

func NewWalletService(
	store WalletStore,
	audit AuditLogger,
	locker Locker,
	publisher events.Publisher,
	keys identity.KeyPair,
	network did.Network,
	scrypt vault.ScryptParams,
	log *zap.Logger,
) *WalletService {
	return &WalletService{
		store:     store,
		audit:     audit,
		locker:    locker,
		publisher: publisher,
		keys:      keys,
		network:   network,
		scrypt:    scrypt,
		log:       log,
	}
}

func (s *WalletService) CreateWallet(ctx context.Context, holderID uuid.UUID, name string) (*models.WalletRecord, error) {
	release, err := s.locker.Acquire(ctx, "wallet:"+holderID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.store.Get(ctx, holderID); err == nil {
		return nil, ErrWalletExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	rec, err := identity.NewWallet(name, s.keys, s.scrypt).Export()
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, holderID, *rec); err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}

	s.logAudit(ctx, holderID, "wallet_created", holderID.String(), nil)
	s.log.Info("wallet created", zap.String("holder_id", holderID.String()))
	return rec, nil
}

// Register creates a holder with a new wallet and a first DID, so the
// passphrase can be checked on later logins.
func (s *WalletService) Register(ctx context.Context, name, passphrase string) (uuid.UUID, string, error) {
	if passphrase == "" {
		return uuid.Nil, "", ErrEmptyPassphrase
	}
	holderID := uuid.New()
	if _, err := s.CreateWallet(ctx, holderID, name); err != nil {
		return uuid.Nil, "", err
	}
	d, err := s.CreateDID(ctx, holderID, passphrase)
	if err != nil {
		return uuid.Nil, "", err
	}
	return holderID, d, nil
}

// Authenticate succeeds when passphrase opens every account of the holder's
// wallet. A wallet without accounts cannot prove anything and is refused.
func (s *WalletService) Authenticate(ctx context.Context, holderID uuid.UUID, passphrase string) error {
	w, err := s.open(ctx, holderID, passphrase)
	if err != nil {
		return err
	}
	if len(w.Accounts()) == 0 {
		return identity.ErrDecryption
	}
	return nil
}

// CreateDID adds a fresh account to the holder's wallet and returns its DID.
func (s *WalletService) CreateDID(ctx context.Context, holderID uuid.UUID, passphrase string) (string, error) {
	var d string
	err := s.mutate(ctx, holderID, passphrase, func(w *identity.Wallet) error {
		var err error
		d, err = w.CreateDID(s.network)
		return err
	})
	if err != nil {
		return "", err
	}

	s.logAudit(ctx, holderID, "did_created", d, nil)
	s.publish(ctx, events.EventDIDCreated, map[string]any{"holder_id": holderID.String(), "did": d})
	return d, nil
}

// AddClaim stores a claim under the account owning claim.OwnerDID.
func (s *WalletService) AddClaim(ctx context.Context, holderID uuid.UUID, passphrase string, claim *models.Claim) error {
	err := s.mutate(ctx, holderID, passphrase, func(w *identity.Wallet) error {
		return w.AddClaim(claim)
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, holderID, "claim_stored", claim.ID, map[string]any{"owner_did": claim.OwnerDID, "schema": claim.Schema})
	return nil
}

func (s *WalletService) GetClaim(ctx context.Context, holderID uuid.UUID, passphrase, id string) (*models.Claim, error) {
	w, err := s.open(ctx, holderID, passphrase)
	if err != nil {
		return nil, err
	}
	c, err := w.GetClaim(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrClaimNotFound
	}
	return c, nil
}

func (s *WalletService) ListClaims(ctx context.Context, holderID uuid.UUID, passphrase, d string) ([]*models.Claim, error) {
	w, err := s.open(ctx, holderID, passphrase)
	if err != nil {
		return nil, err
	}
	return w.GetAllClaims(d)
}

// ListDIDs needs no passphrase: DIDs derive from public addresses.
func (s *WalletService) ListDIDs(ctx context.Context, holderID uuid.UUID) ([]string, error) {
	w, err := s.load(ctx, holderID)
	if err != nil {
		return nil, err
	}
	return w.GetAllDIDs(), nil
}

// Export returns the stored encrypted wallet as is.
func (s *WalletService) Export(ctx context.Context, holderID uuid.UUID) (*models.WalletRecord, error) {
	hw, err := s.get(ctx, holderID)
	if err != nil {
		return nil, err
	}
	return &hw.Record, nil
}

// Import replaces the holder's wallet with rec after checking that it opens
// with passphrase. The DID map is rebuilt from the accounts.
func (s *WalletService) Import(ctx context.Context, holderID uuid.UUID, passphrase string, rec models.WalletRecord) (*models.WalletRecord, error) {
	w, err := identity.WalletFromRecord(rec, s.keys)
	if err != nil {
		return nil, err
	}
	if err := w.Decrypt(passphrase); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, "wallet:"+holderID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	out, err := s.seal(w, passphrase)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, holderID, *out); err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}

	s.logAudit(ctx, holderID, "wallet_imported", holderID.String(), map[string]any{"accounts": len(out.Accounts)})
	return out, nil
}

// mutate runs fn on the decrypted wallet and persists the result, holding
// the holder's lock throughout.
func (s *WalletService) mutate(ctx context.Context, holderID uuid.UUID, passphrase string, fn func(w *identity.Wallet) error) error {
	release, err := s.locker.Acquire(ctx, "wallet:"+holderID.String())
	if err != nil {
		return err
	}
	defer release()

	w, err := s.open(ctx, holderID, passphrase)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}

	rec, err := s.seal(w, passphrase)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, holderID, *rec); err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}

func (s *WalletService) seal(w *identity.Wallet, passphrase string) (*models.WalletRecord, error) {
	enc, err := w.Encrypt(passphrase)
	if err != nil {
		return nil, err
	}
	return enc.Export()
}

func (s *WalletService) open(ctx context.Context, holderID uuid.UUID, passphrase string) (*identity.Wallet, error) {
	w, err := s.load(ctx, holderID)
	if err != nil {
		return nil, err
	}
	if err := w.Decrypt(passphrase); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WalletService) load(ctx context.Context, holderID uuid.UUID) (*identity.Wallet, error) {
	hw, err := s.get(ctx, holderID)
	if err != nil {
		return nil, err
	}
	return identity.WalletFromRecord(hw.Record, s.keys)
}

func (s *WalletService) get(ctx context.Context, holderID uuid.UUID) (*models.HolderWallet, error) {
	hw, err := s.store.Get(ctx, holderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrWalletNotFound
	}
	return hw, err
}

func (s *WalletService) logAudit(ctx context.Context, holderID uuid.UUID, action, subject string, meta map[string]any) {
	if err := s.audit.Log(ctx, models.AuditLog{
		ActorID:   &holderID,
		ActorType: "holder",
		Action:    action,
		Subject:   subject,
		Meta:      meta,
	}); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *WalletService) publish(ctx context.Context, typ string, payload map[string]any) {
	if err := s.publisher.Publish(ctx, events.StreamChain, events.Event{Type: typ, Payload: payload}); err != nil {
		s.log.Warn("failed to publish event", zap.String("type", typ), zap.Error(err))
	}
}
