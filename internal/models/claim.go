package models

import (
	"regexp"
	"time"
)

var isoDate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2}(?:\.\d*)?)Z$`)

// ParseISODate parses s when it is a UTC ISO-8601 timestamp such as
// 1990-05-17T00:00:00.000Z. Claims store dates in that form once encrypted.
func ParseISODate(s string) (time.Time, bool) {
	if !isoDate.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Claim is a verifiable claim issued to a DID. It must not change once signed.
type Claim struct {
	ID         string         `json:"id"`
	IssuerDID  string         `json:"issuerDID,omitempty"`
	OwnerDID   string         `json:"ownerDID"`
	Attributes map[string]any `json:"attributes"`
	Schema     string         `json:"schema"`
	Signature  string         `json:"signature,omitempty"`
	ChainTx    string         `json:"tx,omitempty"`
	ValidFrom  *time.Time     `json:"validFrom,omitempty"`
	ValidTo    *time.Time     `json:"validTo,omitempty"`
}

// Schema describes the attributes of claims an issuer may inject.
type Schema struct {
	Name       string   `json:"name"`
	Attributes []string `json:"attributes"`
	Revokable  bool     `json:"revokable"`
	ChainTx    string   `json:"tx,omitempty"`
}
