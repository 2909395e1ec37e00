package repository

import (
	"context"

	"slotbook/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *DefaultNotificationRepository {
	return &DefaultNotificationRepository{db: db}
}

func (n *DefaultNotificationRepository) Save(ctx context.Context, notification *entity.Notification) error {
	return n.db.WithContext(ctx).Create(notification).Error
}

// FindByRecipient returns the recipient's latest notifications first.
func (n *DefaultNotificationRepository) FindByRecipient(ctx context.Context, recipientID, limit int) ([]*entity.Notification, error) {
	var notifications []*entity.Notification
	err := n.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (n *DefaultNotificationRepository) FindByID(ctx context.Context, id int) (*entity.Notification, error) {
	var notification entity.Notification
	err := n.db.WithContext(ctx).First(&notification, id).Error
	return found(&notification, err)
}

func (n *DefaultNotificationRepository) MarkRead(ctx context.Context, notification *entity.Notification) error {
	notification.Read = true
	return n.db.WithContext(ctx).
		Model(notification).
		Update("read", true).Error
}
