package services

import (
	"context"
	"fmt"
	"time"

	"github.com/digitalme/backend/internal/contracts"
	"github.com/digitalme/backend/internal/did"
	"github.com/digitalme/backend/internal/events"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/verifier"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// IssuerKeys is what the issuer needs from the key-pair capability.
type IssuerKeys interface {
	contracts.Signer
	ValidateAddress(addr string) error
}

// IssuerService operates this deployment's issuer contract. Every write can
// be run as a dry run that only asks the contract whether it would succeed.
type IssuerService struct {
	issuer    *contracts.IssuerContract
	keys      IssuerKeys
	issuerKey string
	locker    Locker
	audit     AuditLogger
	publisher events.Publisher
	log       *zap.Logger
}

func NewIssuerService(
	issuer *contracts.IssuerContract,
	keys IssuerKeys,
	issuerKey string,
	locker Locker,
	audit AuditLogger,
	publisher events.Publisher,
	log *zap.Logger,
) *IssuerService {
	return &IssuerService{
		issuer:    issuer,
		keys:      keys,
		issuerKey: issuerKey,
		locker:    locker,
		audit:     audit,
		publisher: publisher,
		log:       log,
	}
}

type IssuerInfo struct {
	Name       string `json:"name"`
	DID        string `json:"did"`
	PublicKey  string `json:"public_key"`
	ScriptHash string `json:"script_hash"`
}

func (s *IssuerService) Info(ctx context.Context) (*IssuerInfo, error) {
	name, err := s.issuer.GetIssuerName(ctx)
	if err != nil {
		return nil, err
	}
	pub, err := s.issuer.GetIssuerPublicKey(ctx)
	if err != nil {
		return nil, err
	}
	return &IssuerInfo{
		Name:       name,
		DID:        s.issuer.GetIssuerDID(),
		PublicKey:  pub,
		ScriptHash: s.issuer.ScriptHash(),
	}, nil
}

func (s *IssuerService) SchemaDetails(ctx context.Context, name string) (*models.Schema, error) {
	return s.issuer.GetSchemaDetails(ctx, name)
}

func (s *IssuerService) RegisterSchema(ctx context.Context, actorID uuid.UUID, schema models.Schema, dryRun bool) (*models.Schema, error) {
	if schema.Name == "" || len(schema.Attributes) == 0 {
		return nil, fmt.Errorf("%w: schema needs a name and attributes", ErrSchemaMismatch)
	}
	if dups := lo.FindDuplicates(schema.Attributes); len(dups) > 0 {
		return nil, fmt.Errorf("%w: duplicate attributes %v", ErrSchemaMismatch, dups)
	}

	if dryRun {
		return &schema, s.issuer.RegisterSchemaTest(ctx, schema)
	}

	tx, err := s.submit(ctx, func(key string) (string, error) {
		return s.issuer.RegisterSchema(ctx, schema, key, contracts.TxOptions{})
	})
	if err != nil {
		return nil, err
	}
	schema.ChainTx = tx

	s.record(ctx, actorID, events.EventSchemaRegistered, schema.Name, tx, map[string]any{"revokable": schema.Revokable})
	return &schema, nil
}

type IssueClaimRequest struct {
	OwnerDID   string
	Schema     string
	Attributes map[string]any
	ValidFrom  *time.Time
	ValidTo    *time.Time
}

// IssueClaim assigns an id, signs the claim hash with the issuer key and
// injects the id on chain. The returned claim is ready to hand to its owner.
func (s *IssuerService) IssueClaim(ctx context.Context, actorID uuid.UUID, req IssueClaimRequest, dryRun bool) (*models.Claim, error) {
	addr, err := did.AddressFromDID(req.OwnerDID)
	if err != nil {
		return nil, err
	}
	if err := s.keys.ValidateAddress(addr); err != nil {
		return nil, fmt.Errorf("%w: %v", did.ErrInvalidDID, err)
	}
	if req.ValidFrom != nil && req.ValidTo != nil && req.ValidTo.Before(*req.ValidFrom) {
		return nil, fmt.Errorf("%w: validTo before validFrom", ErrSchemaMismatch)
	}

	schema, err := s.issuer.GetSchemaDetails(ctx, req.Schema)
	if err != nil {
		return nil, err
	}
	if missing := MissingAttributes(schema, req.Attributes); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrSchemaMismatch, missing)
	}

	if s.issuerKey == "" {
		return nil, ErrKeyNotConfigured
	}
	claim := &models.Claim{
		ID:         uuid.NewString(),
		IssuerDID:  s.issuer.GetIssuerDID(),
		OwnerDID:   req.OwnerDID,
		Attributes: req.Attributes,
		Schema:     schema.Name,
		ValidFrom:  req.ValidFrom,
		ValidTo:    req.ValidTo,
	}
	hash, err := verifier.GetClaimHash(claim)
	if err != nil {
		return nil, err
	}
	claim.Signature, err = s.keys.Sign(hash, s.issuerKey)
	if err != nil {
		return nil, fmt.Errorf("sign claim: %w", err)
	}

	if dryRun {
		return claim, s.issuer.InjectClaimTest(ctx, claim.ID)
	}

	tx, err := s.submit(ctx, func(key string) (string, error) {
		return s.issuer.InjectClaim(ctx, claim.ID, key, contracts.TxOptions{})
	})
	if err != nil {
		return nil, err
	}
	claim.ChainTx = tx

	s.record(ctx, actorID, events.EventClaimIssued, claim.ID, tx, map[string]any{"owner_did": claim.OwnerDID, "schema": claim.Schema})
	return claim, nil
}

func (s *IssuerService) RevokeClaim(ctx context.Context, actorID uuid.UUID, claimID string, dryRun bool) (string, error) {
	if dryRun {
		return "", s.issuer.RevokeClaimTest(ctx, claimID)
	}

	tx, err := s.submit(ctx, func(key string) (string, error) {
		return s.issuer.RevokeClaim(ctx, claimID, key, contracts.TxOptions{})
	})
	if err != nil {
		return "", err
	}

	s.record(ctx, actorID, events.EventClaimRevoked, claimID, tx, nil)
	return tx, nil
}

// submit holds the signing key's lock around one broadcast.
func (s *IssuerService) submit(ctx context.Context, send func(key string) (string, error)) (string, error) {
	return submitLocked(ctx, s.locker, s.keys, s.issuerKey, send)
}

func (s *IssuerService) record(ctx context.Context, actorID uuid.UUID, typ, subject, tx string, meta map[string]any) {
	recordOperation(ctx, s.audit, s.publisher, s.log, actorID, typ, subject, tx, meta)
}

// MissingAttributes lists schema attributes absent from attrs.
func MissingAttributes(schema *models.Schema, attrs map[string]any) []string {
	return lo.Filter(schema.Attributes, func(name string, _ int) bool {
		_, ok := attrs[name]
		return !ok
	})
}

func submitLocked(ctx context.Context, locker Locker, signer contracts.Signer, key string, send func(key string) (string, error)) (string, error) {
	if key == "" {
		return "", ErrKeyNotConfigured
	}
	addr, err := signer.Address(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contracts.ErrTransactionSigningFailed, err)
	}

	release, err := locker.Acquire(ctx, "tx:"+addr)
	if err != nil {
		return "", err
	}
	defer release()

	return send(key)
}

func recordOperation(ctx context.Context, audit AuditLogger, publisher events.Publisher, log *zap.Logger, actorID uuid.UUID, typ, subject, tx string, meta map[string]any) {
	if err := audit.Log(ctx, models.AuditLog{
		ActorID:   &actorID,
		ActorType: "operator",
		Action:    typ,
		Subject:   subject,
		TxHash:    &tx,
		Meta:      meta,
	}); err != nil {
		log.Warn("failed to write audit log", zap.String("action", typ), zap.Error(err))
	}

	payload := lo.Assign(map[string]any{"subject": subject, "tx": tx}, meta)
	if err := publisher.Publish(ctx, events.StreamChain, events.Event{Type: typ, Payload: payload}); err != nil {
		log.Warn("failed to publish event", zap.String("type", typ), zap.Error(err))
	}

	log.Info("transaction submitted", zap.String("operation", typ), zap.String("subject", subject), zap.String("tx", tx))
}
