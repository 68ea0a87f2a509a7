package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
)

// Normalized webhook event types. Gateway-specific names are mapped onto
// these so the service layer never branches on the provider.
const (
	EventPaymentSuccess = "payment.success"
	EventPaymentFailed  = "payment.failed"
)

var (
	// ErrSignatureMismatch: the callback signature did not verify.
	ErrSignatureMismatch = errors.New("signature mismatch")
	// ErrPaymentNotConfirmed: the gateway does not report a successful
	// payment for the order.
	ErrPaymentNotConfirmed = errors.New("payment not confirmed by gateway")
)

// GatewayError carries a non-2xx upstream response. Callers must not retry
// automatically; the local receipt id keeps caller-side retries safe.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Status, e.Message)
}

type CreateOrderRequest struct {
	OrderID       string // local id, used where the gateway lets us pick one
	Amount        int64  // minor currency units
	Currency      string
	Receipt       string
	CustomerEmail string
	CustomerName  string
}

type CreateOrderResult struct {
	GatewayOrderID string
	SessionID      string // handle the frontend opens checkout with
}

// WebhookEvent is a provider webhook normalized to the fields the
// reconciliation flow needs.
type WebhookEvent struct {
	EventID   string
	EventType string // EventPaymentSuccess, EventPaymentFailed, or the raw type
	OrderID   string
	PaymentID string
	Amount    int64 // minor currency units, 0 when the provider omits it
}

// Recognized reports whether the event type maps onto the reconciliation
// flow. Unrecognized events are acknowledged without action.
func (e *WebhookEvent) Recognized() bool {
	return e.EventType == EventPaymentSuccess || e.EventType == EventPaymentFailed
}

type GatewayClient interface {
	Name() string

	// CreateOrder registers the order with the remote gateway and returns
	// the checkout session handle.
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResult, error)

	// ConfirmPayment authenticates a client-side checkout callback.
	// Razorpay checks the callback signature; Cashfree asks the gateway
	// directly. Returns ErrSignatureMismatch or ErrPaymentNotConfirmed
	// when the callback cannot be trusted.
	ConfirmPayment(ctx context.Context, orderID, paymentID, sig string) error

	// VerifyWebhookSignature authenticates a webhook delivery before any
	// business field is parsed.
	VerifyWebhookSignature(headers http.Header, body []byte) error

	ParseWebhook(headers http.Header, body []byte) (*WebhookEvent, error)
}

// fallbackEventID derives a stable dedup key for providers that omit an
// event id, so replays of the same body collapse to one event.
func fallbackEventID(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
