package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID        uuid.UUID  `json:"id"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
	ActorType string     `json:"actor_type"` // holder/operator/system
	Action    string     `json:"action"`
	Subject   string     `json:"subject"` // claim id, schema name or DID
	TxHash    *string    `json:"tx_hash,omitempty"`
	Meta      any        `json:"meta,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
