package identity

import (
	"encoding/json"

	"github.com/digitalme/backend/internal/models"
)

// decodeClaims parses a decrypted claim set. validFrom/validTo come back as
// time.Time through the struct fields; attribute strings in UTC ISO-8601 form
// are revived as well.
func decodeClaims(data []byte) (map[string]*models.Claim, error) {
	claims := make(map[string]*models.Claim)
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, err
	}

	for _, c := range claims {
		if c == nil {
			continue
		}
		for k, v := range c.Attributes {
			c.Attributes[k] = reviveDates(v)
		}
	}
	return claims, nil
}

func reviveDates(v any) any {
	switch val := v.(type) {
	case string:
		if t, ok := models.ParseISODate(val); ok {
			return t
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = reviveDates(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = reviveDates(item)
		}
		return val
	default:
		return v
	}
}
