package dto

import "time"

type CreateOrderRequest struct {
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Currency      string `json:"currency" validate:"required,len=3"`
	Receipt       string `json:"receipt"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CustomerName  string `json:"customer_name"`
}

type CreateOrderResponse struct {
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	SessionID string `json:"session_id"`
}

type VerifyRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature"`
	UserEmail string `json:"user_email"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
}

type VerifyResponse struct {
	Success bool `json:"success"`
}

type PaymentRecord struct {
	PaymentID string    `json:"payment_id"`
	OrderID   string    `json:"order_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
