// Package jwt issues and verifies compact HS256 bearer tokens.
//
// A token is three base64url segments joined by dots:
//
//	base64url({"alg":"HS256","typ":"JWT"}) "." base64url(claims) "." base64url(HMAC-SHA256)
//
// The MAC covers the ASCII bytes of the first two segments. Issue always sets
// iat and exp (Unix seconds), overwriting caller values of the same name.
// Verify rejects, in order: a segment count other than three
// ([ErrMalformedToken]), a signature that does not match ([ErrBadSignature]),
// an unparsable claims segment ([ErrMalformedToken]), and a missing,
// non-numeric or elapsed exp ([ErrExpiredToken]).
//
// # Strict decoding
//
// Segments must be unpadded base64url with zero trailing bits. Input that a
// lenient decoder would accept, such as "=" padding or the standard "+" and
// "/" characters, fails with [ErrDecode], so a token whose signature segment
// carries padding is reported as [ErrMalformedToken]. Every byte string
// therefore has exactly one encoding and one valid token form.
//
// # Empty secrets
//
// Issue and Verify refuse a zero-length secret with [ErrEmptySecret], an
// error kind in addition to the four above. An empty HMAC key would let
// anyone mint tokens, so the round trip is deliberately not available for it.
//
// # What this package must NOT do
//
//   - Retain secrets, tokens, or claims between calls.
//   - Log anything.
//   - Negotiate algorithms: the header is never consulted during verification.
package jwt
