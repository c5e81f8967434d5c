// Package verifier checks that a claim is authentic, issued by a trusted
// issuer, not revoked and inside its validity window.
package verifier

import (
	"context"
	"time"

	"github.com/digitalme/backend/internal/contracts"
	"github.com/digitalme/backend/internal/did"
	"github.com/digitalme/backend/internal/models"
)

// SignatureVerifier is the verify half of the key-pair capability.
type SignatureVerifier interface {
	Verify(hash, signature, publicKey string) bool
}

// Validator is a caller-supplied check on claim attributes.
type Validator func(claim *models.Claim) bool

type Verifier struct {
	issuer *contracts.IssuerContract
	base   *contracts.Base
	sig    SignatureVerifier
	now    func() time.Time
}

func NewVerifier(issuerScriptHash string, base *contracts.Base, sig SignatureVerifier) *Verifier {
	return &Verifier{
		issuer: contracts.NewIssuerContract(issuerScriptHash, base),
		base:   base,
		sig:    sig,
		now:    time.Now,
	}
}

func (v *Verifier) Issuer() *contracts.IssuerContract {
	return v.issuer
}

func (v *Verifier) GetClaimHash(claim *models.Claim) (string, error) {
	return GetClaimHash(claim)
}

// VerifyOffline checks the issuer signature only. It returns false for an
// unsigned or incomplete claim and did.ErrInvalidDID for a malformed DID.
func (v *Verifier) VerifyOffline(claim *models.Claim, issuerPublicKey string) (bool, error) {
	if claim == nil || claim.Signature == "" || claim.IssuerDID == "" || claim.OwnerDID == "" {
		return false, nil
	}
	if _, err := did.AddressFromDID(claim.IssuerDID); err != nil {
		return false, err
	}
	if _, err := did.AddressFromDID(claim.OwnerDID); err != nil {
		return false, err
	}

	hash, err := GetClaimHash(claim)
	if err != nil {
		return false, err
	}
	return v.sig.Verify(hash, claim.Signature, issuerPublicKey), nil
}

// Verify checks that the claim names this verifier's issuer and carries a
// valid signature by the issuer's on-chain public key. Revocation and
// validity dates are not checked.
func (v *Verifier) Verify(ctx context.Context, claim *models.Claim) (bool, error) {
	if claim == nil || claim.IssuerDID != v.issuer.GetIssuerDID() {
		return false, nil
	}
	pub, err := v.issuer.GetIssuerPublicKey(ctx)
	if err != nil {
		return false, err
	}
	return v.VerifyOffline(claim, pub)
}

// ValidateClaim runs, in order and stopping at the first failure: the
// validity window (bounds inclusive, missing bounds mean now), Verify,
// on-chain IsValidClaim and validate.
func (v *Verifier) ValidateClaim(ctx context.Context, claim *models.Claim, validate Validator) (bool, error) {
	if claim == nil {
		return false, nil
	}

	now := v.now()
	if claim.ValidFrom != nil && now.Before(*claim.ValidFrom) {
		return false, nil
	}
	if claim.ValidTo != nil && now.After(*claim.ValidTo) {
		return false, nil
	}

	ok, err := v.Verify(ctx, claim)
	if err != nil || !ok {
		return false, err
	}

	ok, err = v.issuer.IsValidClaim(ctx, claim.ID)
	if err != nil || !ok {
		return false, err
	}

	if validate == nil {
		return true, nil
	}
	return validate(claim), nil
}

func (v *Verifier) GetSchemaDetails(ctx context.Context, name string) (*models.Schema, error) {
	return v.issuer.GetSchemaDetails(ctx, name)
}

// IsIssuerTrusted asks the root of trust at rotScriptHash whether issuerDID
// is trusted for schemaName.
func (v *Verifier) IsIssuerTrusted(ctx context.Context, rotScriptHash, issuerDID, schemaName string) (bool, error) {
	return contracts.NewRootOfTrust(rotScriptHash, v.base).IsTrusted(ctx, issuerDID, schemaName)
}

func (v *Verifier) AddressFromDID(d string) (string, error) {
	return did.AddressFromDID(d)
}
