package client

import (
	"context"
	"encoding/json"
	"errors"
	"mindsupremacy-payments/internal/config"
	"mindsupremacy-payments/internal/signature"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRazorpayTestClient(baseURL string) GatewayClient {
	return NewRazorpayClient(&config.Razorpay{
		BaseApiURL:    baseURL,
		KeyID:         "rzp_test_key",
		KeySecret:     "rzp_test_secret",
		WebhookSecret: "rzp_whsec",
	})
}

func TestRazorpayCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(19900), body["amount"])
		assert.Equal(t, "INR", body["currency"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "order_abc",
			"amount":   19900,
			"currency": "INR",
			"status":   "created",
		})
	}))
	defer srv.Close()

	c := newRazorpayTestClient(srv.URL)
	result, err := c.CreateOrder(context.Background(), &CreateOrderRequest{
		Amount:   19900,
		Currency: "INR",
		Receipt:  "receipt_order_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", result.GatewayOrderID)
	assert.Equal(t, "order_abc", result.SessionID)
}

func TestRazorpayCreateOrderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"description":"bad key"}}`))
	}))
	defer srv.Close()

	c := newRazorpayTestClient(srv.URL)
	_, err := c.CreateOrder(context.Background(), &CreateOrderRequest{Amount: 19900, Currency: "INR"})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnauthorized, gwErr.Status)
	assert.Contains(t, gwErr.Message, "bad key")
}

func TestRazorpayConfirmPayment(t *testing.T) {
	c := newRazorpayTestClient("")

	sig := signature.Sign([]byte("order_abc|pay_xyz"), "rzp_test_secret")
	require.NoError(t, c.ConfirmPayment(context.Background(), "order_abc", "pay_xyz", sig))

	err := c.ConfirmPayment(context.Background(), "order_abc", "pay_xyz", "forged")
	assert.True(t, errors.Is(err, ErrSignatureMismatch))
}

func TestRazorpayWebhook(t *testing.T) {
	c := newRazorpayTestClient("")

	body := []byte(`{
		"event": "payment.captured",
		"payload": {"payment": {"entity": {
			"id": "pay_xyz", "order_id": "order_abc", "amount": 19900, "status": "captured"
		}}}
	}`)

	headers := http.Header{}
	headers.Set("X-Razorpay-Signature", signature.Sign(body, "rzp_whsec"))
	headers.Set("X-Razorpay-Event-Id", "evt_123")

	require.NoError(t, c.VerifyWebhookSignature(headers, body))

	event, err := c.ParseWebhook(headers, body)
	require.NoError(t, err)
	assert.Equal(t, "evt_123", event.EventID)
	assert.Equal(t, EventPaymentSuccess, event.EventType)
	assert.Equal(t, "order_abc", event.OrderID)
	assert.Equal(t, "pay_xyz", event.PaymentID)
	assert.Equal(t, int64(19900), event.Amount)
	assert.True(t, event.Recognized())

	headers.Set("X-Razorpay-Signature", "forged")
	assert.Error(t, c.VerifyWebhookSignature(headers, body))
}

func TestRazorpayWebhookUnknownEvent(t *testing.T) {
	c := newRazorpayTestClient("")

	body := []byte(`{"event": "refund.created", "payload": {"payment": {"entity": {}}}}`)
	event, err := c.ParseWebhook(http.Header{}, body)
	require.NoError(t, err)
	assert.Equal(t, "refund.created", event.EventType)
	assert.False(t, event.Recognized())
	// no event id header: dedup key falls back to a body digest
	assert.NotEmpty(t, event.EventID)
}
