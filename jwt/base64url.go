package jwt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// segmentEncoding is the unpadded URL-safe alphabet. Strict mode rejects
// non-zero trailing bits, so each byte string has exactly one encoding.
var segmentEncoding = base64.RawURLEncoding.Strict()

// EncodeBytes encodes b with the URL-safe base64 alphabet and no padding.
func EncodeBytes(b []byte) string {
	return segmentEncoding.EncodeToString(b)
}

// DecodeToBytes reverses EncodeBytes. Padding characters are not accepted;
// the decoder restores the missing length internally.
func DecodeToBytes(s string) ([]byte, error) {
	out, err := segmentEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

// EncodeJSON serializes v and encodes the UTF-8 bytes with EncodeBytes.
// Map keys are emitted in sorted order, so identical input always yields the
// same segment.
func EncodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("jwt: encode json segment: %w", err)
	}
	return EncodeBytes(data), nil
}

// DecodeJSON decodes a segment produced by EncodeJSON into v. Numbers decoded
// into interface values are kept as json.Number to avoid float rounding.
func DecodeJSON(s string, v any) error {
	data, err := DecodeToBytes(s)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("jwt: decode json segment: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("jwt: decode json segment: trailing data")
	}
	return nil
}
