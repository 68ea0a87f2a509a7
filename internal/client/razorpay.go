package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mindsupremacy-payments/internal/config"
	"mindsupremacy-payments/internal/signature"
	"net/http"
	"time"
)

type razorpayClient struct {
	httpClient    *http.Client
	baseApiURL    string
	keyID         string
	keySecret     string
	webhookSecret string
}

func NewRazorpayClient(cfg *config.Razorpay) GatewayClient {
	return &razorpayClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:    cfg.BaseApiURL,
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
	}
}

func (c *razorpayClient) Name() string { return "razorpay" }

type razorpayOrderResult struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func (c *razorpayClient) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResult, error) {
	payload := map[string]interface{}{
		"amount":   req.Amount, // already in paise
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/orders",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &GatewayError{Status: resp.StatusCode, Message: string(b)}
	}

	var result razorpayOrderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode razorpay response: %w", err)
	}

	// Razorpay checkout opens against the order id itself.
	return &CreateOrderResult{
		GatewayOrderID: result.ID,
		SessionID:      result.ID,
	}, nil
}

func (c *razorpayClient) ConfirmPayment(ctx context.Context, orderID, paymentID, sig string) error {
	if !signature.VerifyPair(orderID, paymentID, sig, c.keySecret) {
		return ErrSignatureMismatch
	}
	return nil
}

func (c *razorpayClient) VerifyWebhookSignature(headers http.Header, body []byte) error {
	sig := headers.Get("X-Razorpay-Signature")
	if !signature.Verify(body, sig, c.webhookSecret) {
		return ErrSignatureMismatch
	}
	return nil
}

type razorpayWebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Amount  int64  `json:"amount"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (c *razorpayClient) ParseWebhook(headers http.Header, body []byte) (*WebhookEvent, error) {
	var payload razorpayWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}

	eventID := headers.Get("X-Razorpay-Event-Id")
	if eventID == "" {
		eventID = fallbackEventID(body)
	}

	event := &WebhookEvent{
		EventID:   eventID,
		EventType: payload.Event,
		OrderID:   payload.Payload.Payment.Entity.OrderID,
		PaymentID: payload.Payload.Payment.Entity.ID,
		Amount:    payload.Payload.Payment.Entity.Amount,
	}

	switch payload.Event {
	case "payment.captured":
		event.EventType = EventPaymentSuccess
	case "payment.failed":
		event.EventType = EventPaymentFailed
	}

	return event, nil
}
