package repository

import (
	"context"
	"mindsupremacy-payments/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string) error
}

type webhookEventRepoImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepoImpl{db: db}
}

func (r *webhookEventRepoImpl) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error

	return count > 0, err
}

func (r *webhookEventRepoImpl) MarkProcessed(ctx context.Context, eventID string, eventType string) error {
	// insert-ignore: a concurrent delivery of the same event may have won
	// the race between Exists and here.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.WebhookEvent{
			EventID:     eventID,
			EventType:   eventType,
			ProcessedAt: time.Now(),
		}).Error
}
