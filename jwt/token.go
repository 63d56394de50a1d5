package jwt

import (
	"fmt"
	"strings"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// Header is the fixed protected header of every issued token.
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// DefaultHeader returns {"alg":"HS256","typ":"JWT"}.
func DefaultHeader() Header {
	return Header{Alg: gjwt.SigningMethodHS256.Alg(), Typ: "JWT"}
}

// Issued is the result of Issue: the compact token and the claims it carries.
type Issued struct {
	Token  string
	Claims Claims
}

// Issue signs claims with secret and a lifetime of ttlSeconds from now.
//
// The returned claims are a copy of the input with iat and exp set; the
// caller's map is not modified. A zero or negative ttl produces a token that
// is already expired.
func Issue(secret []byte, claims Claims, ttlSeconds int64) (Issued, error) {
	return IssueAt(secret, claims, ttlSeconds, time.Now())
}

// IssueAt is Issue with an explicit clock reading, truncated to whole seconds.
func IssueAt(secret []byte, claims Claims, ttlSeconds int64, now time.Time) (Issued, error) {
	if len(secret) == 0 {
		return Issued{}, ErrEmptySecret
	}

	iat := now.Unix()
	full := claims.Clone()
	full[ClaimIssuedAt] = iat
	full[ClaimExpiresAt] = iat + ttlSeconds

	headerSeg, err := EncodeJSON(DefaultHeader())
	if err != nil {
		return Issued{}, err
	}
	claimsSeg, err := EncodeJSON(full)
	if err != nil {
		return Issued{}, err
	}

	signingInput := headerSeg + "." + claimsSeg
	mac, err := Sign(secret, []byte(signingInput))
	if err != nil {
		return Issued{}, fmt.Errorf("jwt: sign: %w", err)
	}

	return Issued{
		Token:  signingInput + "." + EncodeBytes(mac),
		Claims: full,
	}, nil
}

// Verify checks token against secret and the current time and returns its claims.
//
// Failures are reported as ErrMalformedToken, ErrBadSignature or
// ErrExpiredToken. The signature is checked before the claims segment is
// parsed, and the segment count is checked before any cryptographic work.
func Verify(secret []byte, token string) (Claims, error) {
	return VerifyAt(secret, token, time.Now())
}

// VerifyAt is Verify with an explicit clock reading.
func VerifyAt(secret []byte, token string, now time.Time) (Claims, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	mac, err := DecodeToBytes(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature segment: %w", ErrMalformedToken, err)
	}

	signingInput := parts[0] + "." + parts[1]
	if !VerifyMAC(secret, []byte(signingInput), mac) {
		return nil, ErrBadSignature
	}

	var claims Claims
	if err := DecodeJSON(parts[1], &claims); err != nil {
		return nil, fmt.Errorf("%w: claims segment: %w", ErrMalformedToken, err)
	}
	if claims == nil {
		return nil, fmt.Errorf("%w: claims segment is not an object", ErrMalformedToken)
	}

	exp, err := claims.expiry()
	if err != nil {
		return nil, err
	}
	if !(exp > float64(now.Unix())) {
		return nil, ErrExpiredToken
	}

	return claims, nil
}
