package services

import (
	"context"
	"errors"

	"github.com/digitalme/backend/internal/contracts"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/verifier"
	"go.uber.org/zap"
)

// VerificationReport breaks a verification down into its checks. Trusted is
// nil when no root of trust was asked.
type VerificationReport struct {
	ClaimID   string `json:"claim_id"`
	Valid     bool   `json:"valid"`
	Trusted   *bool  `json:"trusted,omitempty"`
	Schema    string `json:"schema"`
	IssuerDID string `json:"issuer_did"`
	Reason    string `json:"reason,omitempty"`
}

type VerificationService struct {
	verifier *verifier.Verifier
	rotHash  string
	log      *zap.Logger
}

// NewVerificationService uses defaultRotHash when a request names no root
// of trust; empty disables the trust check by default.
func NewVerificationService(v *verifier.Verifier, defaultRotHash string, log *zap.Logger) *VerificationService {
	return &VerificationService{verifier: v, rotHash: defaultRotHash, log: log}
}

// Verify validates the claim (dates, signature, revocation, schema
// attributes) and, given a root of trust, whether its issuer is trusted for
// the claim's schema.
func (s *VerificationService) Verify(ctx context.Context, claim *models.Claim, rotHash string) (*VerificationReport, error) {
	report := &VerificationReport{ClaimID: claim.ID, Schema: claim.Schema, IssuerDID: claim.IssuerDID}

	var schemaErr error
	valid, err := s.verifier.ValidateClaim(ctx, claim, func(c *models.Claim) bool {
		schema, err := s.verifier.GetSchemaDetails(ctx, c.Schema)
		if err != nil {
			schemaErr = err
			return false
		}
		return len(MissingAttributes(schema, c.Attributes)) == 0
	})
	if err == nil {
		err = schemaErr
	}

	var ce *contracts.ContractError
	switch {
	case errors.As(err, &ce):
		report.Reason = ce.Message
	case err != nil:
		return nil, err
	case !valid:
		report.Reason = "claim is not valid"
	}
	report.Valid = valid

	if rotHash == "" {
		rotHash = s.rotHash
	}
	if rotHash != "" && claim.IssuerDID != "" {
		trusted, err := s.verifier.IsIssuerTrusted(ctx, rotHash, claim.IssuerDID, claim.Schema)
		if err != nil && !errors.As(err, &ce) {
			return nil, err
		}
		report.Trusted = &trusted
	}

	s.log.Info("claim verified",
		zap.String("claim_id", claim.ID),
		zap.Bool("valid", report.Valid),
		zap.String("reason", report.Reason),
	)
	return report, nil
}

// VerifyOffline checks only the signature against a known issuer key.
func (s *VerificationService) VerifyOffline(claim *models.Claim, issuerPublicKey string) (bool, error) {
	return s.verifier.VerifyOffline(claim, issuerPublicKey)
}

func (s *VerificationService) ClaimHash(claim *models.Claim) (string, error) {
	return s.verifier.GetClaimHash(claim)
}
