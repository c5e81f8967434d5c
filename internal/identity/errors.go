package identity

import "errors"

var (
	ErrLocked         = errors.New("account is locked, decrypt it first")
	ErrInvalidClaim   = errors.New("invalid claim")
	ErrDuplicateClaim = errors.New("claim already exists")
	ErrDecryption     = errors.New("decryption failed")
	ErrNotEncrypted   = errors.New("encrypt account before exporting it")
	ErrUnknownOwner   = errors.New("DID account is not part of this wallet")
	ErrMissingNetwork = errors.New("DID network is not defined")
	ErrDuplicateDID   = errors.New("DID already present in wallet")
)
