package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-dispatcher/internal/model"
)

//go:generate mockgen -source=service.go -destination=../../mocks/service/notification/mock.go -package=mocks

type notificationRepository interface {
	CreateNotification(context.Context, model.Notification) (uuid.UUID, error)
	GetNotificationsByUser(context.Context, string) ([]model.Notification, error)
}

type notificationPublisher interface {
	Dispatch(context.Context, model.Notification) error
}

type statusReader interface {
	Status(context.Context, uuid.UUID) (model.Status, error)
}

// Service accepts notifications and answers queries about them.
type Service struct {
	repo    notificationRepository
	queue   notificationPublisher
	tracker statusReader
	now     func() time.Time
}

// NewService creates a new Service.
func NewService(repo notificationRepository, queue notificationPublisher, tracker statusReader) *Service {
	return &Service{
		repo:    repo,
		queue:   queue,
		tracker: tracker,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateNotification stores n as a new PENDING notification and enqueues it
// for delivery. It returns the stored notification.
func (s *Service) CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error) {
	now := s.now()

	n.Status = model.StatusPending
	n.RetryCount = 0
	n.NextAttemptAt = nil
	n.SentAt = nil
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.Metadata == nil {
		n.Metadata = map[string]any{}
	}

	id, err := s.repo.CreateNotification(ctx, n)
	if err != nil {
		return model.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	n.ID = id

	if err := s.queue.Dispatch(ctx, n); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to publish notification")
		return model.Notification{}, fmt.Errorf("enqueue notification %s: %w", id, err)
	}

	zlog.Logger.Info().Str("id", id.String()).Str("user_id", n.UserID).Str("channel", string(n.Channel)).Msg("notification accepted")

	return n, nil
}

// GetUserNotifications returns the notifications of a user, newest first.
func (s *Service) GetUserNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	notifications, err := s.repo.GetNotificationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user notifications: %w", err)
	}

	return notifications, nil
}

// GetNotificationStatusByID returns the current status of a notification.
func (s *Service) GetNotificationStatusByID(ctx context.Context, id uuid.UUID) (model.Status, error) {
	return s.tracker.Status(ctx, id)
}
