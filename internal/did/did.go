package did

import (
	"errors"
	"fmt"
	"strings"
)

// Prefix is the fixed method prefix of every DigitalMe DID.
const Prefix = "did:neoid:"

// Network is the network tag embedded in a DID, e.g. "TestNet".
type Network string

const (
	MainNet Network = "MainNet"
	TestNet Network = "TestNet"
	PrivNet Network = "PrivNet"
)

var ErrInvalidDID = errors.New("invalid DID")

// Format builds did:neoid:<network>:<address>.
func Format(network Network, address string) string {
	return Prefix + string(network) + ":" + address
}

// AddressFromDID returns the trailing address segment of a DID.
func AddressFromDID(d string) (string, error) {
	_, addr, err := Parse(d)
	return addr, err
}

// Parse splits a DID into its network tag and address.
func Parse(d string) (Network, string, error) {
	if !strings.HasPrefix(d, Prefix) {
		return "", "", fmt.Errorf("%w: %q is not a DigitalMe DID", ErrInvalidDID, d)
	}

	rest := d[len(Prefix):]
	idx := strings.LastIndex(rest, ":")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", fmt.Errorf("%w: %q has no address segment", ErrInvalidDID, d)
	}

	return Network(rest[:idx]), rest[idx+1:], nil
}
