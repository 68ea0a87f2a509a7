package repository

import (
	"context"
	"mindsupremacy-payments/internal/model"
	"time"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	// MarkCompleted moves an order from created to completed. Returns the
	// number of rows changed: zero means the order was already terminal,
	// which callers treat as a no-op.
	MarkCompleted(ctx context.Context, tx *gorm.DB, orderID string) (int64, error)
	// MarkFailed moves an order from created to failed, same contract.
	MarkFailed(ctx context.Context, tx *gorm.DB, orderID string) (int64, error)
	// ExpireStale fails every order still in created state since before
	// cutoff and returns how many were swept.
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

// transition is guarded so terminal states are write-once: re-applying a
// terminal status matches zero rows instead of erroring, and two concurrent
// deliveries race harmlessly on the WHERE clause.
func (r *orderRepoImpl) transition(ctx context.Context, tx *gorm.DB, orderID, status string) (int64, error) {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ? AND status = ?", orderID, model.OrderStatusCreated).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	return result.RowsAffected, result.Error
}

func (r *orderRepoImpl) MarkCompleted(ctx context.Context, tx *gorm.DB, orderID string) (int64, error) {
	return r.transition(ctx, tx, orderID, model.OrderStatusCompleted)
}

func (r *orderRepoImpl) MarkFailed(ctx context.Context, tx *gorm.DB, orderID string) (int64, error) {
	return r.transition(ctx, tx, orderID, model.OrderStatusFailed)
}

func (r *orderRepoImpl) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ? AND created_at < ?", model.OrderStatusCreated, cutoff).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusFailed,
			"updated_at": time.Now(),
		})

	return result.RowsAffected, result.Error
}
