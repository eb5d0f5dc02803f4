package service

import (
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/pkg/logger"
)

// Pusher delivers realtime frames to connected users
type Pusher interface {
	SendToUser(userID uint, eventType string, payload interface{}) error
}

type NotificationService interface {
	// Notify persists n and pushes it to the user's live sessions. Failures are logged, never returned.
	Notify(n *model.Notification)
	GetNotifications(userID uint, unreadOnly bool, page repository.Page) ([]model.Notification, int64, int64, error)
	MarkAsRead(notificationID, userID uint) error
	MarkAllAsRead(userID uint) (int64, error)
}

type notificationService struct {
	repo   repository.NotificationRepository
	pusher Pusher
}

// NewNotificationService creates the service. pusher may be nil.
func NewNotificationService(repo repository.NotificationRepository, pusher Pusher) NotificationService {
	return &notificationService{
		repo:   repo,
		pusher: pusher,
	}
}

func (s *notificationService) Notify(n *model.Notification) {
	if n == nil || n.UserID == 0 {
		return
	}
	if err := s.repo.Create(n); err != nil {
		logger.Error("Failed to create notification", err, map[string]interface{}{
			"user_id": n.UserID,
			"type":    n.Type,
		})
		return
	}

	if s.pusher == nil {
		return
	}
	if err := s.pusher.SendToUser(n.UserID, "notification", n); err != nil {
		logger.Warn("Failed to push notification", map[string]interface{}{
			"user_id":         n.UserID,
			"notification_id": n.ID,
			"error":           err.Error(),
		})
	}
}

func (s *notificationService) GetNotifications(userID uint, unreadOnly bool, page repository.Page) ([]model.Notification, int64, int64, error) {
	notifications, total, err := s.repo.FindByUserID(userID, unreadOnly, page)
	if err != nil {
		return nil, 0, 0, storeError(err, nil)
	}

	unread, err := s.repo.CountUnread(userID)
	if err != nil {
		return nil, 0, 0, storeError(err, nil)
	}

	return notifications, total, unread, nil
}

func (s *notificationService) MarkAsRead(notificationID, userID uint) error {
	return storeError(s.repo.MarkAsRead(notificationID, userID), ErrNotificationNotFound)
}

func (s *notificationService) MarkAllAsRead(userID uint) (int64, error) {
	n, err := s.repo.MarkAllAsRead(userID)
	if err != nil {
		return 0, storeError(err, nil)
	}
	return n, nil
}
