package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerify(t *testing.T) {
	secret := "shhh"
	payload := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK"}`)

	sig := Sign(payload, secret)
	assert.True(t, Verify(payload, sig, secret))

	// tampered payload
	assert.False(t, Verify([]byte(`{"type":"PAYMENT_FAILED_WEBHOOK"}`), sig, secret))
	// tampered signature
	assert.False(t, Verify(payload, sig[:len(sig)-1]+"0", secret))
	// wrong secret
	assert.False(t, Verify(payload, sig, "other"))
}

func TestVerifyMissingInputs(t *testing.T) {
	payload := []byte("abc")
	sig := Sign(payload, "secret")

	assert.False(t, Verify(payload, "", "secret"))
	assert.False(t, Verify(payload, sig, ""))
}

func TestVerifyPair(t *testing.T) {
	secret := "rzp_secret"
	sig := Sign([]byte("order_123|pay_456"), secret)

	assert.True(t, VerifyPair("order_123", "pay_456", sig, secret))
	assert.False(t, VerifyPair("order_123", "pay_457", sig, secret))
	assert.False(t, VerifyPair("order_124", "pay_456", sig, secret))
}

func TestSignKnownVector(t *testing.T) {
	// HMAC-SHA256("key", "The quick brown fox jumps over the lazy dog")
	got := Sign([]byte("The quick brown fox jumps over the lazy dog"), "key")
	assert.Equal(t, "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8", got)
}
