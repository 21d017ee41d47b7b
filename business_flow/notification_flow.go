package businessflow

import (
	"context"
	"errors"

	"github.com/linkpulse/linkpulse/app/dto"
	"github.com/linkpulse/linkpulse/models"
	"github.com/linkpulse/linkpulse/repository"
	"github.com/linkpulse/linkpulse/utils"
	"gorm.io/gorm"
)

// NotificationFlow serves in-app notifications to their owner
type NotificationFlow interface {
	ListNotifications(ctx context.Context, userID uint, limit, offset int) (*dto.ListNotificationsResponse, error)
	MarkRead(ctx context.Context, userID, notificationID uint) error
	MarkAllRead(ctx context.Context, userID uint) error
}

type NotificationFlowImpl struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationFlow(notificationRepo repository.NotificationRepository) NotificationFlow {
	return &NotificationFlowImpl{notificationRepo: notificationRepo}
}

func (s *NotificationFlowImpl) ListNotifications(ctx context.Context, userID uint, limit, offset int) (*dto.ListNotificationsResponse, error) {
	rows, err := s.notificationRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("LIST_NOTIFICATIONS_FAILED", "Failed to list notifications", err)
	}

	unread, err := s.notificationRepo.Count(ctx, models.NotificationFilter{
		UserID: &userID,
		Read:   utils.ToPtr(false),
	})
	if err != nil {
		return nil, NewBusinessError("LIST_NOTIFICATIONS_FAILED", "Failed to count unread notifications", err)
	}

	out := make([]dto.NotificationDTO, 0, len(rows))
	for _, n := range rows {
		out = append(out, ToNotificationDTO(*n))
	}

	return &dto.ListNotificationsResponse{
		Notifications: out,
		Unread:        unread,
	}, nil
}

func (s *NotificationFlowImpl) MarkRead(ctx context.Context, userID, notificationID uint) error {
	if err := s.notificationRepo.MarkRead(ctx, notificationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return NewBusinessError("MARK_READ_FAILED", "Failed to mark notification read", err)
	}
	return nil
}

func (s *NotificationFlowImpl) MarkAllRead(ctx context.Context, userID uint) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return NewBusinessError("MARK_ALL_READ_FAILED", "Failed to mark notifications read", err)
	}
	return nil
}
