package service

import (
	"context"
	"errors"
	"strings"

	"slotbook/cmd/internal/domain/entity"
	"slotbook/cmd/internal/utils"
	"slotbook/cmd/internal/utils/apierror"

	"github.com/labstack/gommon/log"
)

const notificationListLimit = 20

var (
	errNoRecipient = errors.New("notification recipient is required")
	errNoContent   = errors.New("notification content is required")
)

type NotificationRepository interface {
	Save(ctx context.Context, notification *entity.Notification) error
	FindByRecipient(ctx context.Context, recipientID, limit int) ([]*entity.Notification, error)
	FindByID(ctx context.Context, id int) (*entity.Notification, error)
	MarkRead(ctx context.Context, notification *entity.Notification) error
}

type NotificationResponse struct {
	ID        int    `json:"id"`
	Content   string `json:"content"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

type DefaultNotificationService struct {
	NotificationRepo NotificationRepository
	UserRepo         UserRepository
}

func NewNotificationService(notificationRepo NotificationRepository, userRepo UserRepository) *DefaultNotificationService {
	return &DefaultNotificationService{NotificationRepo: notificationRepo, UserRepo: userRepo}
}

// Notify appends a notification for recipientID. Storage errors are returned
// as is.
func (n *DefaultNotificationService) Notify(ctx context.Context, recipientID int, content string) (*entity.Notification, error) {
	if recipientID <= 0 {
		return nil, errNoRecipient
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errNoContent
	}

	notification := &entity.Notification{RecipientID: recipientID, Content: content}
	if err := n.NotificationRepo.Save(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (n *DefaultNotificationService) GetNotifications(ctx context.Context, subId string) ([]*NotificationResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(ctx, n.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	notifications, err := n.NotificationRepo.FindByRecipient(ctx, caller.ID, notificationListLimit)
	if err != nil {
		log.Errorf("failed to find notifications for user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*NotificationResponse, len(notifications))
	for i, notification := range notifications {
		resp[i] = toNotificationResponse(notification)
	}
	return resp, nil
}

func (n *DefaultNotificationService) MarkRead(ctx context.Context, id int, subId string) (*NotificationResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(ctx, n.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	notification, err := n.NotificationRepo.FindByID(ctx, id)
	if err != nil {
		log.Errorf("failed to fetch notification by id %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if notification == nil || notification.RecipientID != caller.ID {
		return nil, apierror.NotificationNotFoundError
	}

	if !notification.Read {
		if err := n.NotificationRepo.MarkRead(ctx, notification); err != nil {
			log.Errorf("failed to mark notification %d as read: %v", id, err)
			return nil, apierror.InternalServerError
		}
	}
	return toNotificationResponse(notification), nil
}

func toNotificationResponse(notification *entity.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        notification.ID,
		Content:   notification.Content,
		Read:      notification.Read,
		CreatedAt: utils.FormatTime(notification.CreatedAt),
	}
}
