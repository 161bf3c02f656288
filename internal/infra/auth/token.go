// Package auth provides concrete implementations for authentication-related
// domain services: token hashing, opaque token generation, code signatures and
// the JWT signer/verifier.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/pkg/errors"
)

// opaqueTokenBytes is the entropy of a raw refresh token or auth code:
// 128 bits, base64url-encoded for transport.
const opaqueTokenBytes = 16

// HashToken returns the hex SHA-256 of a raw token. Persisted token records
// store only this hash.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:])
}

// NewOpaqueToken generates a high-entropy random token for use as a refresh
// token or auth code. The raw value is handed to the client and never stored.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate random token")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SignCode computes the exchange signature for an auth code:
// hex sha256(appSecret + code). The shared secret makes this a keyed
// commitment between the central app and one satellite.
func SignCode(secret, code string) string {
	sum := sha256.Sum256([]byte(secret + code))

	return hex.EncodeToString(sum[:])
}

// VerifyCodeSignature recomputes the expected signature and compares in
// constant time.
func VerifyCodeSignature(secret, code, signature string) bool {
	expected := SignCode(secret, code)

	return hmac.Equal([]byte(expected), []byte(signature))
}
