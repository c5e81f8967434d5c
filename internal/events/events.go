package events

import (
	"context"
	"time"
)

// StreamChain carries every on-chain identity operation.
const StreamChain = "events:chain"

// Event types
const (
	EventSchemaRegistered  = "schema_registered"
	EventClaimIssued       = "claim_issued"
	EventClaimRevoked      = "claim_revoked"
	EventIssuerRegistered  = "issuer_registered"
	EventIssuerDeactivated = "issuer_deactivated"
	EventDIDCreated        = "did_created"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
	At      time.Time      `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
