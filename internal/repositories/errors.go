package repositories

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrDIDTaken means a DID is already registered to another holder.
	ErrDIDTaken = errors.New("did already registered")
)
