package identity

import (
	"testing"
	"time"

	"github.com/digitalme/backend/internal/did"
	"github.com/digitalme/backend/internal/keys"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = vault.LightScryptParams

func newTestAccount(t *testing.T) *Account {
	t.Helper()
	k := keys.NewEd25519()
	priv, err := k.GeneratePrivateKey()
	require.NoError(t, err)
	acc, err := NewAccount(k, priv, did.TestNet)
	require.NoError(t, err)
	return acc
}

func datePtr(t time.Time) *time.Time { return &t }

func sampleClaim(id, owner string) *models.Claim {
	return &models.Claim{
		ID:       id,
		OwnerDID: owner,
		Schema:   "Passport",
		Attributes: map[string]any{
			"name":      "Alice",
			"age":       float64(31),
			"verified":  true,
			"birthDate": time.Date(1993, 4, 12, 0, 0, 0, 0, time.UTC),
			"address":   map[string]any{"city": "Zurich", "zip": "8001"},
		},
		ValidFrom: datePtr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		ValidTo:   datePtr(time.Date(2030, 1, 1, 12, 30, 0, 500_000_000, time.UTC)),
	}
}

func TestAccountDID(t *testing.T) {
	acc := newTestAccount(t)
	assert.Equal(t, "did:neoid:TestNet:"+acc.Address, acc.DID())

	addr, err := did.AddressFromDID(acc.DID())
	require.NoError(t, err)
	assert.Equal(t, acc.Address, addr)
}

func TestAccountEncryptDecryptRoundTrip(t *testing.T) {
	acc := newTestAccount(t)
	c1 := sampleClaim("claim-1", acc.DID())
	c2 := sampleClaim("claim-2", acc.DID())
	c2.ValidFrom, c2.ValidTo = nil, nil
	require.NoError(t, acc.AddClaim(c1))
	require.NoError(t, acc.AddClaim(c2))

	enc, err := acc.Encrypt("pass", testParams)
	require.NoError(t, err)
	assert.True(t, enc.IsLocked())
	assert.False(t, acc.IsLocked(), "source account must stay unlocked")

	dec, err := enc.Decrypt("pass", testParams)
	require.NoError(t, err)
	assert.False(t, dec.IsLocked())
	assert.False(t, enc.IsLocked())

	got, err := dec.GetClaim("claim-1")
	require.NoError(t, err)
	assert.Equal(t, c1, got)
	assert.IsType(t, time.Time{}, got.Attributes["birthDate"])

	all, err := dec.GetAllClaims()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, c2, all[1])

	origKey, err := acc.PrivateKey()
	require.NoError(t, err)
	decKey, err := dec.PrivateKey()
	require.NoError(t, err)
	assert.Equal(t, origKey, decKey)
}

func TestAccountDecryptWrongPassphrase(t *testing.T) {
	acc := newTestAccount(t)
	require.NoError(t, acc.AddClaim(sampleClaim("c", acc.DID())))

	enc, err := acc.Encrypt("right", testParams)
	require.NoError(t, err)

	_, err = enc.Decrypt("wrong", testParams)
	require.ErrorIs(t, err, ErrDecryption)
	assert.True(t, enc.IsLocked())
}

func TestAccountLocked(t *testing.T) {
	acc := newTestAccount(t)
	enc, err := acc.Encrypt("pass", testParams)
	require.NoError(t, err)

	tests := []struct {
		name  string
		claim *models.Claim
	}{
		{"valid claim", sampleClaim("c", acc.DID())},
		{"nil claim", nil},
		{"empty id", &models.Claim{OwnerDID: acc.DID()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, enc.AddClaim(tt.claim), ErrLocked)
		})
	}

	_, err = enc.GetClaim("c")
	require.ErrorIs(t, err, ErrLocked)
	_, err = enc.GetAllClaims()
	require.ErrorIs(t, err, ErrLocked)
	_, err = enc.PrivateKey()
	require.ErrorIs(t, err, ErrLocked)
}

func TestAccountAddClaimValidation(t *testing.T) {
	acc := newTestAccount(t)

	require.ErrorIs(t, acc.AddClaim(nil), ErrInvalidClaim)
	require.ErrorIs(t, acc.AddClaim(&models.Claim{}), ErrInvalidClaim)

	first := sampleClaim("dup", acc.DID())
	require.NoError(t, acc.AddClaim(first))

	second := sampleClaim("dup", acc.DID())
	second.Schema = "Other"
	require.ErrorIs(t, acc.AddClaim(second), ErrDuplicateClaim)

	got, err := acc.GetClaim("dup")
	require.NoError(t, err)
	assert.Same(t, first, got)

	missing, err := acc.GetClaim("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccountExport(t *testing.T) {
	acc := newTestAccount(t)

	_, err := acc.Export()
	require.ErrorIs(t, err, ErrNotEncrypted)

	enc, err := acc.Encrypt("pass", testParams)
	require.NoError(t, err)

	rec, err := enc.Export()
	require.NoError(t, err)
	assert.Equal(t, acc.Address, rec.Address)
	assert.Equal(t, "TestNet", rec.Network)
	assert.NotEmpty(t, rec.Key)
	assert.NotEmpty(t, rec.Claims)

	restored := AccountFromRecord(rec, did.TestNet)
	assert.True(t, restored.IsLocked())
	assert.Equal(t, acc.DID(), restored.DID())

	_, err = restored.Decrypt("pass", testParams)
	require.NoError(t, err)
	claims, err := restored.GetAllClaims()
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestNewAccountRequiresNetwork(t *testing.T) {
	k := keys.NewEd25519()
	priv, err := k.GeneratePrivateKey()
	require.NoError(t, err)

	_, err = NewAccount(k, priv, "")
	require.ErrorIs(t, err, ErrMissingNetwork)
}

func TestAccountFromRecordClaimsOnly(t *testing.T) {
	acc := newTestAccount(t)
	require.NoError(t, acc.AddClaim(sampleClaim("c1", acc.DID())))
	enc, err := acc.Encrypt("pass", testParams)
	require.NoError(t, err)
	rec, err := enc.Export()
	require.NoError(t, err)

	rec.Key = ""
	restored := AccountFromRecord(rec, did.TestNet)
	assert.True(t, restored.IsLocked())

	_, err = restored.GetAllClaims()
	require.ErrorIs(t, err, ErrLocked)
	require.ErrorIs(t, restored.AddClaim(sampleClaim("c2", acc.DID())), ErrLocked)

	_, err = restored.Decrypt("pass", testParams)
	require.NoError(t, err)
	claims, err := restored.GetAllClaims()
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "c1", claims[0].ID)
}

func TestAccountDecryptUnlockedKeepsClaims(t *testing.T) {
	acc := newTestAccount(t)
	require.NoError(t, acc.AddClaim(sampleClaim("c1", acc.DID())))
	enc, err := acc.Encrypt("pass", testParams)
	require.NoError(t, err)
	_, err = enc.Decrypt("pass", testParams)
	require.NoError(t, err)

	require.NoError(t, enc.AddClaim(sampleClaim("c2", acc.DID())))
	_, err = enc.Decrypt("pass", testParams)
	require.NoError(t, err)

	claims, err := enc.GetAllClaims()
	require.NoError(t, err)
	assert.Len(t, claims, 2)
}
