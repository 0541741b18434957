package services

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"actiongate/internal/models"
)

// defaultProfileID is used when the payload does not name a policy profile.
const defaultProfileID uint = 1

// payloadProfileID reads the "profileId" field of a payload.
func payloadProfileID(payload models.Document) uint {
	v, ok := payload["profileId"]
	if !ok {
		return defaultProfileID
	}
	d, ok := toAmount(v)
	if !ok || d.IsNegative() || !d.IsInteger() {
		return defaultProfileID
	}
	return uint(d.IntPart())
}

// payloadAmount reads the monetary "amount" field of a payload.
func payloadAmount(payload models.Document) (decimal.Decimal, bool) {
	v, ok := payload["amount"]
	if !ok {
		return decimal.Decimal{}, false
	}
	return toAmount(v)
}

// payloadCurrency reads the "currency" field of a payload.
func payloadCurrency(payload models.Document) string {
	if s, ok := payload["currency"].(string); ok {
		return s
	}
	return ""
}

// payloadString reads an arbitrary string field of a payload.
func payloadString(payload models.Document, key string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}

// toAmount converts the numeric representations a JSON payload can carry
// into a decimal.
func toAmount(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return decimal.NewFromInt(int64(n)), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}
