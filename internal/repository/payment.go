package repository

import (
	"context"
	"mindsupremacy-payments/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository interface {
	// CreateIgnoreDuplicate inserts a payment row, silently dropping the
	// insert when the row (or another row for the same order and status)
	// already exists. This is what makes re-delivered callbacks and
	// webhooks converge on exactly one success row.
	CreateIgnoreDuplicate(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	Exists(ctx context.Context, orderID string) (bool, error)
	FindByCustomerEmail(ctx context.Context, email string) ([]*model.Payment, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) CreateIgnoreDuplicate(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(payment).Error
}

func (r *paymentRepoImpl) Exists(ctx context.Context, orderID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("order_id = ?", orderID).
		Where("status = ?", model.PaymentStatusSuccess).
		Count(&count).Error

	return count > 0, err
}

func (r *paymentRepoImpl) FindByCustomerEmail(ctx context.Context, email string) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.WithContext(ctx).
		Where("order_id IN (?)",
			r.db.Model(&model.Order{}).Select("order_id").Where("customer_email = ?", email),
		).
		Order("created_at DESC").
		Find(&payments).Error

	if err != nil {
		return nil, err
	}

	return payments, nil
}
