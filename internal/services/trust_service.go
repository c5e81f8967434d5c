package services

import (
	"context"

	"github.com/digitalme/backend/internal/contracts"
	"github.com/digitalme/backend/internal/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TrustService operates the root-of-trust contract.
type TrustService struct {
	rot       *contracts.RootOfTrust
	signer    contracts.Signer
	rotKey    string
	locker    Locker
	audit     AuditLogger
	publisher events.Publisher
	log       *zap.Logger
}

func NewTrustService(
	rot *contracts.RootOfTrust,
	signer contracts.Signer,
	rotKey string,
	locker Locker,
	audit AuditLogger,
	publisher events.Publisher,
	log *zap.Logger,
) *TrustService {
	return &TrustService{
		rot:       rot,
		signer:    signer,
		rotKey:    rotKey,
		locker:    locker,
		audit:     audit,
		publisher: publisher,
		log:       log,
	}
}

type TrustInfo struct {
	Name       string `json:"name"`
	DID        string `json:"did"`
	ScriptHash string `json:"script_hash"`
}

func (s *TrustService) Info(ctx context.Context) (*TrustInfo, error) {
	name, err := s.rot.GetName(ctx)
	if err != nil {
		return nil, err
	}
	return &TrustInfo{Name: name, DID: s.rot.GetDID(), ScriptHash: s.rot.ScriptHash()}, nil
}

func (s *TrustService) IsTrusted(ctx context.Context, issuerDID, schemaName string) (bool, error) {
	return s.rot.IsTrusted(ctx, issuerDID, schemaName)
}

func (s *TrustService) RegisterIssuer(ctx context.Context, actorID uuid.UUID, issuerDID, schemaName string, dryRun bool) (string, error) {
	if dryRun {
		return "", s.rot.RegisterIssuerTest(ctx, issuerDID, schemaName)
	}

	tx, err := submitLocked(ctx, s.locker, s.signer, s.rotKey, func(key string) (string, error) {
		return s.rot.RegisterIssuer(ctx, issuerDID, schemaName, key, contracts.TxOptions{})
	})
	if err != nil {
		return "", err
	}

	recordOperation(ctx, s.audit, s.publisher, s.log, actorID, events.EventIssuerRegistered, issuerDID, tx, map[string]any{"schema": schemaName})
	return tx, nil
}

func (s *TrustService) DeactivateIssuer(ctx context.Context, actorID uuid.UUID, issuerDID, schemaName string, dryRun bool) (string, error) {
	if dryRun {
		return "", s.rot.DeactivateIssuerTest(ctx, issuerDID, schemaName)
	}

	tx, err := submitLocked(ctx, s.locker, s.signer, s.rotKey, func(key string) (string, error) {
		return s.rot.DeactivateIssuer(ctx, issuerDID, schemaName, key, contracts.TxOptions{})
	})
	if err != nil {
		return "", err
	}

	recordOperation(ctx, s.audit, s.publisher, s.log, actorID, events.EventIssuerDeactivated, issuerDID, tx, map[string]any{"schema": schemaName})
	return tx, nil
}
