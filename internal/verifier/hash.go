package verifier

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/digitalme/backend/internal/models"
	"github.com/samber/lo"
)

// isoMillis is the form attribute dates are hashed in. time.Time values and
// strings that parse as ISO-8601 dates are both rewritten to it, so a claim
// hashes the same before and after its dates are revived by decryption.
const isoMillis = "2006-01-02T15:04:05.000Z"

// GetClaimHash is the double SHA-256 over id, issuerDID, ownerDID, schema,
// validFrom and validTo in epoch millis (empty when unset), then the JSON of
// every attribute value in ascending key order.
func GetClaimHash(claim *models.Claim) (string, error) {
	var sb strings.Builder
	sb.WriteString(claim.ID)
	sb.WriteString(claim.IssuerDID)
	sb.WriteString(claim.OwnerDID)
	sb.WriteString(claim.Schema)
	if claim.ValidFrom != nil {
		sb.WriteString(strconv.FormatInt(claim.ValidFrom.UnixMilli(), 10))
	}
	if claim.ValidTo != nil {
		sb.WriteString(strconv.FormatInt(claim.ValidTo.UnixMilli(), 10))
	}

	names := lo.Keys(claim.Attributes)
	sort.Strings(names)
	for _, name := range names {
		v, err := canonicalJSON(claim.Attributes[name])
		if err != nil {
			return "", err
		}
		sb.Write(v)
	}

	first := sha256.Sum256([]byte(sb.String()))
	second := sha256.Sum256(first[:])
	return hex.EncodeToString(second[:]), nil
}

func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalizeDates(v)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func normalizeDates(v any) any {
	switch t := v.(type) {
	case string:
		if d, ok := models.ParseISODate(t); ok {
			return d.UTC().Format(isoMillis)
		}
		return t
	case time.Time:
		return t.UTC().Format(isoMillis)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(isoMillis)
	case map[string]any:
		return lo.MapValues(t, func(x any, _ string) any { return normalizeDates(x) })
	case []any:
		return lo.Map(t, func(x any, _ int) any { return normalizeDates(x) })
	default:
		return v
	}
}
