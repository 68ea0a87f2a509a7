package repository

import (
	"context"
	"fmt"
	"mindsupremacy-payments/internal/model"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.Order{}, &model.Payment{}, &model.WebhookEvent{}))
	return db
}

func createdOrder(t *testing.T, db *gorm.DB, orderID string) *model.Order {
	t.Helper()

	order := &model.Order{
		OrderID:       orderID,
		Amount:        19900,
		Currency:      "INR",
		CustomerEmail: "student@example.com",
		Status:        model.OrderStatusCreated,
	}
	require.NoError(t, NewOrderRepository(db).Create(context.Background(), db, order))
	return order
}

func TestOrderMarkCompletedIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	createdOrder(t, db, "order_1")

	rows, err := repo.MarkCompleted(ctx, db, "order_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// re-applying the same terminal status is a no-op, not an error
	rows, err = repo.MarkCompleted(ctx, db, "order_1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	order, err := repo.FindByOrderID(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, order.Status)
}

func TestOrderTerminalStateIsExclusive(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	createdOrder(t, db, "order_1")

	rows, err := repo.MarkFailed(ctx, db, "order_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// a late success must not resurrect a failed order
	rows, err = repo.MarkCompleted(ctx, db, "order_1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	order, err := repo.FindByOrderID(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFailed, order.Status)
}

func TestOrderExpireStale(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	stale := createdOrder(t, db, "order_stale")
	require.NoError(t, db.Model(stale).
		Update("created_at", time.Now().Add(-48*time.Hour)).Error)
	createdOrder(t, db, "order_fresh")

	swept, err := repo.ExpireStale(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	order, err := repo.FindByOrderID(ctx, "order_stale")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFailed, order.Status)

	order, err = repo.FindByOrderID(ctx, "order_fresh")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCreated, order.Status)
}

func TestPaymentDuplicateInsertIgnored(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	createdOrder(t, db, "order_1")

	payment := &model.Payment{
		PaymentID: "pay_1",
		OrderID:   "order_1",
		Amount:    19900,
		Currency:  "INR",
		Status:    model.PaymentStatusSuccess,
	}

	require.NoError(t, repo.CreateIgnoreDuplicate(ctx, db, payment))
	// replayed delivery: no duplicate-key error surfaces
	require.NoError(t, repo.CreateIgnoreDuplicate(ctx, db, &model.Payment{
		PaymentID: "pay_1",
		OrderID:   "order_1",
		Amount:    19900,
		Currency:  "INR",
		Status:    model.PaymentStatusSuccess,
	}))

	var count int64
	require.NoError(t, db.Model(&model.Payment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	exists, err := repo.Exists(ctx, "order_1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPaymentSecondSuccessForOrderIgnored(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	createdOrder(t, db, "order_1")

	require.NoError(t, repo.CreateIgnoreDuplicate(ctx, db, &model.Payment{
		PaymentID: "pay_1", OrderID: "order_1", Amount: 19900, Currency: "INR",
		Status: model.PaymentStatusSuccess,
	}))
	// different payment id, same order and status: unique index drops it
	require.NoError(t, repo.CreateIgnoreDuplicate(ctx, db, &model.Payment{
		PaymentID: "pay_2", OrderID: "order_1", Amount: 19900, Currency: "INR",
		Status: model.PaymentStatusSuccess,
	}))

	var count int64
	require.NoError(t, db.Model(&model.Payment{}).
		Where("status = ?", model.PaymentStatusSuccess).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPaymentFindByCustomerEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	createdOrder(t, db, "order_1")
	other := &model.Order{
		OrderID: "order_2", Amount: 500, Currency: "INR",
		CustomerEmail: "someone-else@example.com", Status: model.OrderStatusCreated,
	}
	require.NoError(t, db.Create(other).Error)

	require.NoError(t, repo.CreateIgnoreDuplicate(ctx, db, &model.Payment{
		PaymentID: "pay_1", OrderID: "order_1", Amount: 19900, Currency: "INR",
		Status: model.PaymentStatusSuccess,
	}))
	require.NoError(t, repo.CreateIgnoreDuplicate(ctx, db, &model.Payment{
		PaymentID: "pay_2", OrderID: "order_2", Amount: 500, Currency: "INR",
		Status: model.PaymentStatusSuccess,
	}))

	payments, err := repo.FindByCustomerEmail(ctx, "student@example.com")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "pay_1", payments[0].PaymentID)
}

func TestWebhookEventDedup(t *testing.T) {
	db := newTestDB(t)
	repo := NewWebhookEventRepository(db)
	ctx := context.Background()

	seen, err := repo.Exists(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, repo.MarkProcessed(ctx, "evt_1", "payment.success"))
	// concurrent delivery may mark the same event twice
	require.NoError(t, repo.MarkProcessed(ctx, "evt_1", "payment.success"))

	seen, err = repo.Exists(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)
}
