package model

import "time"

const (
	OrderStatusCreated   = "created"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"

	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

type Order struct {
	OrderID       string `gorm:"primaryKey;size:64;not null"` // gateway order id
	Receipt       string `gorm:"size:64;index"`
	Amount        int64  `gorm:"not null"` // minor currency units (paise)
	Currency      string `gorm:"size:8;not null"`
	CustomerEmail string `gorm:"size:255;index;not null"`
	CustomerName  string `gorm:"size:255"`
	Status        string `gorm:"size:32;index;not null"` // created, completed, failed
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Payment struct {
	PaymentID string `gorm:"primaryKey;size:64;not null"` // gateway payment id
	// FK → orders.order_id. The composite unique index enforces at most
	// one success row per order.
	OrderID   string `gorm:"size:64;uniqueIndex:idx_payments_order_status;not null"`
	Amount    int64  `gorm:"not null"`
	Currency  string `gorm:"size:8;not null"`
	Status    string `gorm:"size:32;uniqueIndex:idx_payments_order_status;not null"` // success, failed
	CreatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
