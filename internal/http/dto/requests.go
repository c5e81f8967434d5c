package dto

import (
	"time"

	"github.com/digitalme/backend/internal/models"
)

// HolderAuthRequest registers a new holder when HolderID is empty and logs
// in an existing one otherwise.
type HolderAuthRequest struct {
	HolderID   string `json:"holder_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Passphrase string `json:"passphrase"`
}

type OperatorAuthRequest struct {
	APIKey string `json:"api_key"`
}

type RegisterSchemaRequest struct {
	Name       string   `json:"name"`
	Attributes []string `json:"attributes"`
	Revokable  bool     `json:"revokable"`
}

type IssueClaimRequest struct {
	OwnerDID   string         `json:"owner_did"`
	Schema     string         `json:"schema"`
	Attributes map[string]any `json:"attributes"`
	ValidFrom  *time.Time     `json:"valid_from,omitempty"`
	ValidTo    *time.Time     `json:"valid_to,omitempty"`
}

type IssuerSchemaRequest struct {
	IssuerDID string `json:"issuer_did"`
	Schema    string `json:"schema"`
}

type VerifyClaimRequest struct {
	Claim models.Claim `json:"claim"`
	// RotScriptHash overrides the configured root of trust.
	RotScriptHash string `json:"rot_script_hash,omitempty"`
}

type VerifyOfflineRequest struct {
	Claim           models.Claim `json:"claim"`
	IssuerPublicKey string       `json:"issuer_public_key"`
}
