// Package status owns the notification state machine. Every status change of
// a notification after creation goes through a Tracker.
package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-dispatcher/internal/model"
	"github.com/aliskhannn/notification-dispatcher/internal/repository/notification"
)

//go:generate mockgen -source=tracker.go -destination=../mocks/status/mock.go -package=mocks

type notificationStore interface {
	GetNotificationByID(context.Context, uuid.UUID) (model.Notification, error)
	UpdateStatus(context.Context, uuid.UUID, model.StatusUpdate) error
}

type cache interface {
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
	GetWithRetry(ctx context.Context, strategy retry.Strategy, key string) (string, error)
}

// Tracker applies guarded status transitions to the store and mirrors the
// resulting status into the cache.
type Tracker struct {
	store    notificationStore
	cache    cache
	strategy retry.Strategy
	now      func() time.Time
}

// NewTracker creates a new Tracker. strategy governs cache calls only.
func NewTracker(store notificationStore, cache cache, strategy retry.Strategy) *Tracker {
	return &Tracker{
		store:    store,
		cache:    cache,
		strategy: strategy,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the stored notification.
func (t *Tracker) Get(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	n, err := t.store.GetNotificationByID(ctx, id)
	if err != nil {
		return model.Notification{}, fmt.Errorf("get notification: %w", err)
	}

	return n, nil
}

// Status returns the current status of a notification, reading the cache
// first and back-filling it from the store on a miss.
func (t *Tracker) Status(ctx context.Context, id uuid.UUID) (model.Status, error) {
	cached, err := t.cache.GetWithRetry(ctx, t.strategy, id.String())
	if err == nil && cached != "" {
		return model.Status(cached), nil
	}

	if err != nil && !errors.Is(err, redis.Nil) {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get notification status from cache")
	}

	n, err := t.store.GetNotificationByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get notification status: %w", err)
	}

	t.remember(ctx, id, n.Status)

	return n.Status, nil
}

// MarkSent moves a PENDING or RETRYING notification to SENT and stamps sentAt.
// Marking an already SENT notification again is a no-op.
func (t *Tracker) MarkSent(ctx context.Context, id uuid.UUID) error {
	now := t.now()

	err := t.store.UpdateStatus(ctx, id, model.StatusUpdate{
		Status: model.StatusSent,
		SentAt: &now,
		From:   model.Sources(model.StatusSent),
	})
	if errors.Is(err, notification.ErrStaleUpdate) {
		current, getErr := t.store.GetNotificationByID(ctx, id)
		if getErr == nil && current.Status == model.StatusSent {
			return nil
		}
	}
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}

	t.remember(ctx, id, model.StatusSent)

	return nil
}

// MarkRetrying records retry attempt retryCount, due at due.
func (t *Tracker) MarkRetrying(ctx context.Context, id uuid.UUID, retryCount int, due time.Time) error {
	err := t.store.UpdateStatus(ctx, id, model.StatusUpdate{
		Status:        model.StatusRetrying,
		RetryCount:    &retryCount,
		NextAttemptAt: &due,
		From:          model.Sources(model.StatusRetrying),
	})
	if err != nil {
		return fmt.Errorf("mark retrying: %w", err)
	}

	t.remember(ctx, id, model.StatusRetrying)

	return nil
}

// MarkFailed moves a RETRYING notification to FAILED with the final retry count.
func (t *Tracker) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int) error {
	err := t.store.UpdateStatus(ctx, id, model.StatusUpdate{
		Status:     model.StatusFailed,
		RetryCount: &retryCount,
		From:       model.Sources(model.StatusFailed),
	})
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}

	t.remember(ctx, id, model.StatusFailed)

	return nil
}

func (t *Tracker) remember(ctx context.Context, id uuid.UUID, s model.Status) {
	if err := t.cache.SetWithRetry(ctx, t.strategy, id.String(), string(s)); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cache notification status")
	}
}
