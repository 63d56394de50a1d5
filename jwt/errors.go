package jwt

import "errors"

var (
	// ErrDecode is returned when a segment is not valid unpadded base64url.
	ErrDecode = errors.New("jwt: malformed base64url input")
	// ErrMalformedToken is returned for a wrong segment count or an unparsable claims segment.
	ErrMalformedToken = errors.New("jwt: malformed token")
	// ErrBadSignature is returned when the recomputed MAC does not match the token signature.
	ErrBadSignature = errors.New("jwt: signature mismatch")
	// ErrExpiredToken is returned when exp is missing, not a number, or not after the current time.
	ErrExpiredToken = errors.New("jwt: token expired")
	// ErrEmptySecret is returned when Issue or Verify is called with a zero-length key.
	ErrEmptySecret = errors.New("jwt: empty secret")
)
