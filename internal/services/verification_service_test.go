package services

import (
	"context"
	"testing"

	"github.com/digitalme/backend/internal/chain"
	"github.com/digitalme/backend/internal/contracts"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func signedClaim(t *testing.T, e *chainEnv, attrs map[string]any) *models.Claim {
	c := &models.Claim{
		ID:         "c-1",
		IssuerDID:  "did:neoid:TestNet:" + issuerHash,
		OwnerDID:   e.ownerDID,
		Schema:     "Passport",
		Attributes: attrs,
	}
	hash, err := verifier.GetClaimHash(c)
	require.NoError(t, err)
	c.Signature, err = e.keys.Sign(hash, e.issuerKey)
	require.NoError(t, err)
	return c
}

func (e *chainEnv) expectOnline(claimID string, valid bool) {
	e.rpc.EXPECT().InvokeFunction(gomock.Any(), issuerHash, contracts.IssuerPublicKey).Return(ok(chain.NewStringItem(e.issuerPub)), nil)
	e.rpc.EXPECT().InvokeFunction(gomock.Any(), issuerHash, contracts.IssuerIsValidClaim, chain.StringParam(claimID)).
		Return(&chain.InvokeResult{Stack: []chain.StackItem{chain.NewBooleanItem(valid)}}, nil)
}

func TestVerificationServiceValid(t *testing.T) {
	e := newChainEnv(t)
	svc := NewVerificationService(verifier.NewVerifier(issuerHash, e.base, e.keys), rotHash, zap.NewNop())
	c := signedClaim(t, e, map[string]any{"name": "Alice", "birthDate": "1990-05-17"})

	e.expectOnline(c.ID, true)
	e.expectSchema(t, passport)
	e.rpc.EXPECT().InvokeFunction(gomock.Any(), rotHash, contracts.RootOfTrustIsTrusted, chain.StringParam(c.IssuerDID), chain.StringParam("Passport")).
		Return(&chain.InvokeResult{Stack: []chain.StackItem{chain.NewBooleanItem(true)}}, nil)

	report, err := svc.Verify(context.Background(), c, "")
	require.NoError(t, err)
	assert.True(t, report.Valid)
	require.NotNil(t, report.Trusted)
	assert.True(t, *report.Trusted)
	assert.Empty(t, report.Reason)
}

func TestVerificationServiceMissingSchemaAttribute(t *testing.T) {
	e := newChainEnv(t)
	svc := NewVerificationService(verifier.NewVerifier(issuerHash, e.base, e.keys), "", zap.NewNop())
	c := signedClaim(t, e, map[string]any{"name": "Alice"})

	e.expectOnline(c.ID, true)
	e.expectSchema(t, passport)

	report, err := svc.Verify(context.Background(), c, "")
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Nil(t, report.Trusted)
	assert.NotEmpty(t, report.Reason)
}

func TestVerificationServiceRevoked(t *testing.T) {
	e := newChainEnv(t)
	svc := NewVerificationService(verifier.NewVerifier(issuerHash, e.base, e.keys), "", zap.NewNop())
	c := signedClaim(t, e, map[string]any{"name": "Alice", "birthDate": "1990-05-17"})

	e.expectOnline(c.ID, false)

	report, err := svc.Verify(context.Background(), c, "")
	require.NoError(t, err)
	assert.False(t, report.Valid)
}

func TestVerificationServiceOffline(t *testing.T) {
	e := newChainEnv(t)
	svc := NewVerificationService(verifier.NewVerifier(issuerHash, e.base, e.keys), "", zap.NewNop())
	c := signedClaim(t, e, map[string]any{"name": "Alice"})

	valid, err := svc.VerifyOffline(c, e.issuerPub)
	require.NoError(t, err)
	assert.True(t, valid)

	h1, err := svc.ClaimHash(c)
	require.NoError(t, err)
	h2, err := verifier.GetClaimHash(c)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}
