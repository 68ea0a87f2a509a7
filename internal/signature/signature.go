// Package signature authenticates gateway callbacks and webhooks by
// recomputing the HMAC the gateway attached and comparing in constant time.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the hex HMAC-SHA256 digest of payload under secret.
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether sig is the HMAC-SHA256 hex digest of payload under
// secret. A missing secret or signature never verifies.
func Verify(payload []byte, sig, secret string) bool {
	if secret == "" || sig == "" {
		return false
	}
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(expected), []byte(sig))
}

// VerifyPair verifies a client checkout callback signed over the canonical
// "orderID|paymentID" concatenation.
func VerifyPair(orderID, paymentID, sig, secret string) bool {
	return Verify([]byte(orderID+"|"+paymentID), sig, secret)
}
