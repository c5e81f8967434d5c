package services

import "errors"

var (
	ErrWalletExists     = errors.New("wallet already exists")
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrClaimNotFound    = errors.New("claim not found")
	ErrBusy             = errors.New("another transaction is in progress")
	ErrSchemaMismatch   = errors.New("claim does not match schema")
	ErrKeyNotConfigured = errors.New("signing key not configured")
	ErrEmptyPassphrase  = errors.New("passphrase is required")
)
