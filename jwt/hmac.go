package jwt

import (
	gjwt "github.com/golang-jwt/jwt/v5"
)

// MACSize is the length in bytes of an HMAC-SHA256 tag.
const MACSize = 32

// Sign computes HMAC-SHA256 of message under secret.
func Sign(secret, message []byte) ([]byte, error) {
	return gjwt.SigningMethodHS256.Sign(string(message), secret)
}

// VerifyMAC recomputes the tag for message and compares it with mac in
// constant time. A length mismatch is reported as a failure without
// inspecting content.
func VerifyMAC(secret, message, mac []byte) bool {
	return gjwt.SigningMethodHS256.Verify(string(message), mac, secret) == nil
}
