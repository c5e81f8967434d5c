package services

import (
	"context"
	"testing"

	"github.com/digitalme/backend/internal/did"
	"github.com/digitalme/backend/internal/events"
	"github.com/digitalme/backend/internal/identity"
	"github.com/digitalme/backend/internal/keys"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/vault"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const passphrase = "correct horse"

type walletEnv struct {
	svc       *WalletService
	store     *memStore
	audit     *memAudit
	locker    *memLocker
	publisher *memPublisher
}

func newWalletEnv() *walletEnv {
	e := &walletEnv{store: newMemStore(), audit: &memAudit{}, locker: newMemLocker(), publisher: &memPublisher{}}
	e.svc = NewWalletService(e.store, e.audit, e.locker, e.publisher, keys.NewEd25519(), did.TestNet, vault.LightScryptParams, zap.NewNop())
	return e
}

func TestWalletServiceLifecycle(t *testing.T) {
	e := newWalletEnv()
	ctx := context.Background()
	holder := uuid.New()

	rec, err := e.svc.CreateWallet(ctx, holder, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.Name)
	assert.Empty(t, rec.Accounts)

	_, err = e.svc.CreateWallet(ctx, holder, "again")
	assert.ErrorIs(t, err, ErrWalletExists)

	d, err := e.svc.CreateDID(ctx, holder, passphrase)
	require.NoError(t, err)
	assert.Contains(t, d, "did:neoid:TestNet:")

	claim := &models.Claim{ID: "c-1", OwnerDID: d, Schema: "Email", Attributes: map[string]any{"email": "a@example.com"}}
	require.NoError(t, e.svc.AddClaim(ctx, holder, passphrase, claim))

	got, err := e.svc.GetClaim(ctx, holder, passphrase, "c-1")
	require.NoError(t, err)
	assert.Equal(t, claim, got)

	all, err := e.svc.ListClaims(ctx, holder, passphrase, d)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	dids, err := e.svc.ListDIDs(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, []string{d}, dids)

	_, err = e.svc.GetClaim(ctx, holder, passphrase, "missing")
	assert.ErrorIs(t, err, ErrClaimNotFound)

	// stored form stays encrypted
	stored, err := e.svc.Export(ctx, holder)
	require.NoError(t, err)
	require.Len(t, stored.Accounts, 1)
	assert.NotEmpty(t, stored.Accounts[0].Claims)
	assert.NotContains(t, stored.Accounts[0].Claims, "a@example.com")
	assert.Equal(t, map[string]int{d: 0}, stored.DIDMap)

	assert.Equal(t, []string{"wallet_created", "did_created", "claim_stored"}, e.audit.actions())
	require.Len(t, e.publisher.events, 1)
	assert.Equal(t, events.EventDIDCreated, e.publisher.events[0].Type)
	assert.Empty(t, e.locker.held)
}

func TestWalletServiceWrongPassphrase(t *testing.T) {
	e := newWalletEnv()
	ctx := context.Background()
	holder := uuid.New()

	_, err := e.svc.CreateWallet(ctx, holder, "alice")
	require.NoError(t, err)
	_, err = e.svc.CreateDID(ctx, holder, passphrase)
	require.NoError(t, err)

	_, err = e.svc.GetClaim(ctx, holder, "wrong", "c-1")
	assert.ErrorIs(t, err, identity.ErrDecryption)
}

func TestWalletServiceErrors(t *testing.T) {
	e := newWalletEnv()
	ctx := context.Background()
	holder := uuid.New()

	_, err := e.svc.ListDIDs(ctx, holder)
	assert.ErrorIs(t, err, ErrWalletNotFound)

	_, err = e.svc.CreateWallet(ctx, holder, "alice")
	require.NoError(t, err)

	err = e.svc.AddClaim(ctx, holder, passphrase, &models.Claim{ID: "c-1", OwnerDID: "did:neoid:TestNet:nobody"})
	assert.ErrorIs(t, err, identity.ErrUnknownOwner)

	release, err := e.locker.Acquire(ctx, "wallet:"+holder.String())
	require.NoError(t, err)
	_, err = e.svc.CreateDID(ctx, holder, passphrase)
	assert.ErrorIs(t, err, ErrBusy)
	release()
}

func TestWalletServiceImport(t *testing.T) {
	e := newWalletEnv()
	ctx := context.Background()
	src, dst := uuid.New(), uuid.New()

	_, err := e.svc.CreateWallet(ctx, src, "alice")
	require.NoError(t, err)
	d, err := e.svc.CreateDID(ctx, src, passphrase)
	require.NoError(t, err)
	require.NoError(t, e.svc.AddClaim(ctx, src, passphrase, &models.Claim{ID: "c-1", OwnerDID: d, Schema: "Email"}))

	exported, err := e.svc.Export(ctx, src)
	require.NoError(t, err)
	exported.DIDMap = map[string]int{"did:neoid:TestNet:forged": 0}

	_, err = e.svc.Import(ctx, dst, "wrong", *exported)
	assert.ErrorIs(t, err, identity.ErrDecryption)

	rec, err := e.svc.Import(ctx, dst, passphrase, *exported)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{d: 0}, rec.DIDMap)

	c, err := e.svc.GetClaim(ctx, dst, passphrase, "c-1")
	require.NoError(t, err)
	assert.Equal(t, d, c.OwnerDID)
}

func TestWalletServiceRegisterAndAuthenticate(t *testing.T) {
	e := newWalletEnv()
	ctx := context.Background()

	_, _, err := e.svc.Register(ctx, "alice", "")
	assert.ErrorIs(t, err, ErrEmptyPassphrase)

	holder, d, err := e.svc.Register(ctx, "alice", passphrase)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, holder)

	dids, err := e.svc.ListDIDs(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, []string{d}, dids)

	assert.NoError(t, e.svc.Authenticate(ctx, holder, passphrase))
	assert.ErrorIs(t, e.svc.Authenticate(ctx, holder, "wrong"), identity.ErrDecryption)
	assert.ErrorIs(t, e.svc.Authenticate(ctx, uuid.New(), passphrase), ErrWalletNotFound)

	empty := uuid.New()
	_, err = e.svc.CreateWallet(ctx, empty, "bob")
	require.NoError(t, err)
	assert.ErrorIs(t, e.svc.Authenticate(ctx, empty, "anything"), identity.ErrDecryption)
}
