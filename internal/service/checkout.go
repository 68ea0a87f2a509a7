package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mindsupremacy-payments/internal/apperr"
	"mindsupremacy-payments/internal/client"
	"mindsupremacy-payments/internal/dto"
	"mindsupremacy-payments/internal/mailer"
	"mindsupremacy-payments/internal/model"
	"mindsupremacy-payments/internal/repository"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var supportedCurrencies = []string{"INR"}

type CheckoutService interface {
	CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, req *dto.VerifyRequest) error
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
	ListPayments(ctx context.Context, email string) ([]*dto.PaymentRecord, error)
	ExpireAbandonedOrders(ctx context.Context) error
}

type checkoutServiceImpl struct {
	db               *gorm.DB
	gateway          client.GatewayClient
	orderRepo        repository.OrderRepository
	paymentRepo      repository.PaymentRepository
	webhookEventRepo repository.WebhookEventRepository
	mailer           mailer.Mailer
	logger           *slog.Logger
	minAmount        int64
	orderTTL         time.Duration
}

func NewCheckoutService(
	db *gorm.DB,
	gateway client.GatewayClient,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	webhookEventRepo repository.WebhookEventRepository,
	m mailer.Mailer,
	logger *slog.Logger,
	minAmount int64,
	orderTTL time.Duration,
) CheckoutService {
	return &checkoutServiceImpl{
		db:               db,
		gateway:          gateway,
		orderRepo:        orderRepo,
		paymentRepo:      paymentRepo,
		webhookEventRepo: webhookEventRepo,
		mailer:           m,
		logger:           logger,
		minAmount:        minAmount,
		orderTTL:         orderTTL,
	}
}

func (s *checkoutServiceImpl) CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	if req.Amount < s.minAmount {
		return nil, apperr.Newf(apperr.KindValidation, "amount must be at least %d minor units", s.minAmount)
	}
	if !slices.Contains(supportedCurrencies, req.Currency) {
		return nil, apperr.Newf(apperr.KindValidation, "unsupported currency %q", req.Currency)
	}

	receipt := req.Receipt
	if receipt == "" {
		receipt = "receipt_order_" + uuid.NewString()
	}

	result, err := s.gateway.CreateOrder(ctx, &client.CreateOrderRequest{
		OrderID:       "order_" + uuid.NewString(), // used where the gateway lets us pick the id
		Amount:        req.Amount,
		Currency:      req.Currency,
		Receipt:       receipt,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindGateway, "gateway order creation failed", err)
	}

	order := &model.Order{
		OrderID:       result.GatewayOrderID,
		Receipt:       receipt,
		Amount:        req.Amount,
		Currency:      req.Currency,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		Status:        model.OrderStatusCreated,
	}
	if err := s.orderRepo.Create(ctx, s.db, order); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "store order", err)
	}

	s.logger.Info("order created",
		"order_id", order.OrderID,
		"amount", order.Amount,
		"currency", order.Currency,
		"gateway", s.gateway.Name(),
	)

	return &dto.CreateOrderResponse{
		OrderID:   order.OrderID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		SessionID: result.SessionID,
	}, nil
}

func (s *checkoutServiceImpl) VerifyPayment(ctx context.Context, req *dto.VerifyRequest) error {
	order, err := s.orderRepo.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindValidation, "unknown order")
		}
		return apperr.Wrap(apperr.KindPersistence, "load order", err)
	}

	if err := s.gateway.ConfirmPayment(ctx, req.OrderID, req.PaymentID, req.Signature); err != nil {
		var gwErr *client.GatewayError
		if errors.As(err, &gwErr) {
			return apperr.Wrap(apperr.KindGateway, "gateway payment lookup failed", err)
		}
		s.logger.Warn("payment verification rejected", "order_id", req.OrderID)
		return apperr.Wrap(apperr.KindAuthentication, "payment verification failed", err)
	}

	// Verified signature does not mean untampered amount: the callback
	// travels through the client.
	if req.Amount != order.Amount {
		s.logger.Warn("amount mismatch on verified callback",
			"order_id", order.OrderID,
			"expected", order.Amount,
			"got", req.Amount,
		)
		return apperr.New(apperr.KindAmountMismatch, "amount does not match order")
	}

	recipient := order.CustomerEmail
	if req.UserEmail != "" {
		recipient = req.UserEmail
	}

	return s.recordSuccessfulPayment(ctx, order, req.PaymentID, recipient)
}

func (s *checkoutServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if err := s.gateway.VerifyWebhookSignature(headers, body); err != nil {
		return apperr.Wrap(apperr.KindAuthentication, "invalid webhook signature", err)
	}

	event, err := s.gateway.ParseWebhook(headers, body)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "malformed webhook payload", err)
	}

	// Acknowledge event types this system doesn't model so the provider
	// stops retrying them.
	if !event.Recognized() {
		s.logger.Info("ignoring webhook event", "event_type", event.EventType)
		return nil
	}

	seen, err := s.webhookEventRepo.Exists(ctx, event.EventID)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "check webhook event", err)
	}
	if seen {
		s.logger.Info("webhook event already processed", "event_id", event.EventID, "order_id", event.OrderID)
		return nil
	}

	order, err := s.orderRepo.FindByOrderID(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("webhook for unknown order", "order_id", event.OrderID, "event_type", event.EventType)
			return nil
		}
		return apperr.Wrap(apperr.KindPersistence, "load order", err)
	}

	switch event.EventType {
	case client.EventPaymentSuccess:
		if event.Amount != 0 && event.Amount != order.Amount {
			s.logger.Warn("amount mismatch on webhook",
				"order_id", order.OrderID,
				"expected", order.Amount,
				"got", event.Amount,
			)
			return apperr.New(apperr.KindAmountMismatch, "amount does not match order")
		}
		if err := s.recordSuccessfulPayment(ctx, order, event.PaymentID, order.CustomerEmail); err != nil {
			return err
		}
	case client.EventPaymentFailed:
		if err := s.recordFailedPayment(ctx, order, event.PaymentID); err != nil {
			return err
		}
	}

	if err := s.webhookEventRepo.MarkProcessed(ctx, event.EventID, event.EventType); err != nil {
		// The state change already landed; a retry hits the dedup inserts.
		return apperr.Wrap(apperr.KindPersistence, "mark webhook event processed", err)
	}

	return nil
}

// recordSuccessfulPayment is the single write path behind both the verify
// endpoint and the webhook: a guarded order transition plus an insert-ignore
// payment row, so at-least-once delivery collapses to at-most-once state
// change. The confirmation email comes after the transaction and only ever
// logs its failures.
func (s *checkoutServiceImpl) recordSuccessfulPayment(ctx context.Context, order *model.Order, paymentID, recipient string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.orderRepo.MarkCompleted(ctx, tx, order.OrderID)
		if err != nil {
			return fmt.Errorf("mark order completed: %w", err)
		}
		if rows == 0 {
			s.logger.Info("order already terminal, payment kept for audit",
				"order_id", order.OrderID, "status", order.Status)
		}

		if err := s.paymentRepo.CreateIgnoreDuplicate(ctx, tx, &model.Payment{
			PaymentID: paymentID,
			OrderID:   order.OrderID,
			Amount:    order.Amount,
			Currency:  order.Currency,
			Status:    model.PaymentStatusSuccess,
		}); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		return nil
	})
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "record payment", err)
	}

	s.logger.Info("payment recorded", "order_id", order.OrderID, "payment_id", paymentID)

	if recipient != "" {
		if err := s.mailer.SendPaymentConfirmation(recipient, mailer.ConfirmationData{
			OrderID:   order.OrderID,
			PaymentID: paymentID,
			Amount:    order.Amount,
			Currency:  order.Currency,
			PaidAt:    time.Now(),
		}); err != nil {
			// Funds are confirmed; a lost email never surfaces as a
			// payment failure.
			s.logger.Warn("confirmation email failed", "order_id", order.OrderID, "error", err)
		}
	}

	return nil
}

func (s *checkoutServiceImpl) recordFailedPayment(ctx context.Context, order *model.Order, paymentID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.orderRepo.MarkFailed(ctx, tx, order.OrderID); err != nil {
			return fmt.Errorf("mark order failed: %w", err)
		}

		if err := s.paymentRepo.CreateIgnoreDuplicate(ctx, tx, &model.Payment{
			PaymentID: paymentID,
			OrderID:   order.OrderID,
			Amount:    order.Amount,
			Currency:  order.Currency,
			Status:    model.PaymentStatusFailed,
		}); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		return nil
	})
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "record failed payment", err)
	}

	s.logger.Info("payment failure recorded", "order_id", order.OrderID, "payment_id", paymentID)
	return nil
}

func (s *checkoutServiceImpl) ListPayments(ctx context.Context, email string) ([]*dto.PaymentRecord, error) {
	payments, err := s.paymentRepo.FindByCustomerEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "list payments", err)
	}

	records := make([]*dto.PaymentRecord, len(payments))
	for i, p := range payments {
		records[i] = &dto.PaymentRecord{
			PaymentID: p.PaymentID,
			OrderID:   p.OrderID,
			Amount:    p.Amount,
			Currency:  p.Currency,
			Status:    p.Status,
			CreatedAt: p.CreatedAt,
		}
	}

	return records, nil
}

func (s *checkoutServiceImpl) ExpireAbandonedOrders(ctx context.Context) error {
	cutoff := time.Now().Add(-s.orderTTL)
	swept, err := s.orderRepo.ExpireStale(ctx, cutoff)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "expire stale orders", err)
	}

	if swept > 0 {
		s.logger.Info("abandoned orders expired", "count", swept)
	}
	return nil
}
