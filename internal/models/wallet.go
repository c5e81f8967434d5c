package models

import (
	"time"

	"github.com/digitalme/backend/internal/vault"
	"github.com/google/uuid"
)

// AccountRecord is the persisted form of one DID account. Key and Claims are
// both encrypted blobs.
type AccountRecord struct {
	Address   string `json:"address"`
	Label     string `json:"label"`
	IsDefault bool   `json:"isDefault"`
	Key       string `json:"key"`
	Network   string `json:"network"`
	Claims    string `json:"claims,omitempty"`
}

// WalletRecord is the exported wallet file.
type WalletRecord struct {
	Name     string             `json:"name"`
	Version  string             `json:"version"`
	Scrypt   vault.ScryptParams `json:"scrypt"`
	Accounts []AccountRecord    `json:"accounts"`
	DIDMap   map[string]int     `json:"didMap"`
}

type HolderWallet struct {
	HolderID  uuid.UUID    `json:"holder_id"`
	Record    WalletRecord `json:"wallet"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
