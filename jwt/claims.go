package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Reserved claim names set by Issue. Caller values under these keys are overwritten.
const (
	ClaimIssuedAt  = "iat"
	ClaimExpiresAt = "exp"
	ClaimSubject   = "sub"
	ClaimRole      = "role"
)

// Claims is the open payload mapping carried in the middle token segment.
// Values must be JSON-serializable. Claims returned by Verify hold numbers as
// json.Number.
type Claims map[string]any

// Clone returns a shallow copy of c. A nil receiver yields an empty map.
func (c Claims) Clone() Claims {
	out := make(Claims, len(c)+2)
	for k, v := range c {
		out[k] = v
	}
	return out
}

func (c Claims) Subject() string { return c.String(ClaimSubject) }

func (c Claims) Role() string { return c.String(ClaimRole) }

// IssuedAt returns iat in Unix seconds.
func (c Claims) IssuedAt() (int64, bool) { return c.Int64(ClaimIssuedAt) }

// ExpiresAt returns exp in Unix seconds.
func (c Claims) ExpiresAt() (int64, bool) { return c.Int64(ClaimExpiresAt) }

// String returns the value at key when it is a JSON string.
func (c Claims) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Int64 returns the value at key when it is an integral number, whether it
// was set by the caller as a Go integer or decoded from JSON.
func (c Claims) Int64(key string) (int64, bool) {
	switch v := c[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// expiry returns exp as a float. A JSON number too large for float64 is
// rejected rather than read as infinity.
func (c Claims) expiry() (float64, error) {
	raw, ok := c[ClaimExpiresAt]
	if !ok {
		return 0, fmt.Errorf("%w: exp missing", ErrExpiredToken)
	}
	if n, isNumber := raw.(json.Number); isNumber {
		if _, err := strconv.ParseFloat(string(n), 64); errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: exp out of range", ErrExpiredToken)
		}
	}
	exp, ok := c.numericValue(ClaimExpiresAt)
	if !ok {
		return 0, fmt.Errorf("%w: exp not a number", ErrExpiredToken)
	}
	return exp, nil
}

// numericValue reports the value at key as a float when it is any JSON number.
func (c Claims) numericValue(key string) (float64, bool) {
	switch v := c[key].(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
