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

	"github.com/shopspring/decimal"
)

const cashfreeApiVersion = "2023-08-01"

type cashfreeClient struct {
	httpClient     *http.Client
	baseApiURL     string
	appID          string
	secretKey      string
	webhookSecret  string
	frontendURL    string
	serviceBaseURL string
}

// NewCashfreeClient builds the Cashfree adapter. envName selects the
// sandbox or production API host.
func NewCashfreeClient(cfg *config.Cashfree, envName, frontendURL, serviceBaseURL string) GatewayClient {
	baseApiURL := "https://sandbox.cashfree.com/pg"
	if envName == "production" {
		baseApiURL = "https://api.cashfree.com/pg"
	}

	return &cashfreeClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:     baseApiURL,
		appID:          cfg.AppID,
		secretKey:      cfg.SecretKey,
		webhookSecret:  cfg.WebhookSecret,
		frontendURL:    frontendURL,
		serviceBaseURL: serviceBaseURL,
	}
}

func (c *cashfreeClient) Name() string { return "cashfree" }

func (c *cashfreeClient) setAuthHeaders(req *http.Request) {
	req.Header.Set("x-api-version", cashfreeApiVersion)
	req.Header.Set("x-client-id", c.appID)
	req.Header.Set("x-client-secret", c.secretKey)
}

// rupees renders an amount held in paise as the two-decimal rupee string
// the Cashfree API expects.
func rupees(paise int64) json.Number {
	return json.Number(decimal.New(paise, -2).StringFixed(2))
}

// paise converts a rupee amount from a Cashfree payload back to paise.
func paise(rupees float64) int64 {
	return decimal.NewFromFloat(rupees).Mul(decimal.NewFromInt(100)).IntPart()
}

type cashfreeOrderResult struct {
	OrderID          string      `json:"order_id"`
	OrderAmount      json.Number `json:"order_amount"`
	OrderCurrency    string      `json:"order_currency"`
	PaymentSessionID string      `json:"payment_session_id"`
}

func (c *cashfreeClient) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResult, error) {
	payload := map[string]interface{}{
		"order_id":       req.OrderID,
		"order_amount":   rupees(req.Amount),
		"order_currency": req.Currency,
		"customer_details": map[string]string{
			"customer_id":    req.Receipt,
			"customer_email": req.CustomerEmail,
			"customer_name":  req.CustomerName,
		},
		"order_meta": map[string]string{
			"return_url": c.frontendURL + "/payment-success",
			"notify_url": c.serviceBaseURL + "/webhook",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/orders",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("cashfree create order request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &GatewayError{Status: resp.StatusCode, Message: string(b)}
	}

	var result cashfreeOrderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode cashfree response: %w", err)
	}

	return &CreateOrderResult{
		GatewayOrderID: result.OrderID,
		SessionID:      result.PaymentSessionID,
	}, nil
}

type cashfreePayment struct {
	CfPaymentID   json.Number `json:"cf_payment_id"`
	PaymentStatus string      `json:"payment_status"`
}

// ConfirmPayment ignores the client-supplied signature: Cashfree callbacks
// are authenticated by asking the gateway which payments exist for the
// order.
func (c *cashfreeClient) ConfirmPayment(ctx context.Context, orderID, paymentID, sig string) error {
	url := fmt.Sprintf("%s/orders/%s/payments", c.baseApiURL, orderID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	c.setAuthHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("cashfree fetch payments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &GatewayError{Status: resp.StatusCode, Message: string(b)}
	}

	var payments []cashfreePayment
	if err := json.NewDecoder(resp.Body).Decode(&payments); err != nil {
		return fmt.Errorf("decode cashfree payments: %w", err)
	}

	for _, p := range payments {
		if p.PaymentStatus == "SUCCESS" {
			return nil
		}
	}
	return ErrPaymentNotConfirmed
}

func (c *cashfreeClient) VerifyWebhookSignature(headers http.Header, body []byte) error {
	sig := headers.Get("x-webhook-signature")
	if !signature.Verify(body, sig, c.webhookSecret) {
		return ErrSignatureMismatch
	}
	return nil
}

type cashfreeWebhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID       string  `json:"order_id"`
			OrderAmount   float64 `json:"order_amount"`
			OrderCurrency string  `json:"order_currency"`
		} `json:"order"`
		Payment struct {
			CfPaymentID   json.Number `json:"cf_payment_id"`
			PaymentStatus string      `json:"payment_status"`
		} `json:"payment"`
	} `json:"data"`
}

func (c *cashfreeClient) ParseWebhook(headers http.Header, body []byte) (*WebhookEvent, error) {
	var payload cashfreeWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}

	event := &WebhookEvent{
		EventID:   fallbackEventID(body),
		EventType: payload.Type,
		OrderID:   payload.Data.Order.OrderID,
		PaymentID: payload.Data.Payment.CfPaymentID.String(),
		Amount:    paise(payload.Data.Order.OrderAmount),
	}

	switch payload.Type {
	case "PAYMENT_SUCCESS_WEBHOOK":
		event.EventType = EventPaymentSuccess
	case "PAYMENT_FAILED_WEBHOOK":
		event.EventType = EventPaymentFailed
	}

	return event, nil
}
