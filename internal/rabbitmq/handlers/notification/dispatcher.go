package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-dispatcher/internal/model"
	"github.com/aliskhannn/notification-dispatcher/internal/provider"
	"github.com/aliskhannn/notification-dispatcher/internal/rabbitmq/queue"
	"github.com/aliskhannn/notification-dispatcher/internal/repository/notification"
)

//go:generate mockgen -source=dispatcher.go -destination=../../../mocks/rabbitmq/handlers/notification/mock.go -package=mocks

type statusTracker interface {
	Get(context.Context, uuid.UUID) (model.Notification, error)
	Status(context.Context, uuid.UUID) (model.Status, error)
	MarkSent(context.Context, uuid.UUID) error
	MarkRetrying(ctx context.Context, id uuid.UUID, retryCount int, due time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, retryCount int) error
}

type retryPublisher interface {
	Retry(context.Context, model.Notification) error
}

type providerResolver interface {
	Resolve(model.Channel) (provider.Provider, error)
}

// Dispatcher makes delivery attempts for notifications taken from the dispatch queue.
type Dispatcher struct {
	tracker   statusTracker
	providers providerResolver
	publisher retryPublisher
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(t statusTracker, p providerResolver, pub retryPublisher) *Dispatcher {
	return &Dispatcher{
		tracker:   t,
		providers: p,
		publisher: pub,
	}
}

// HandleMessage attempts delivery of a freshly created notification.
//
// Notifications that were deleted or have already left PENDING are
// acknowledged without an attempt. The message is requeued only when the
// attempt could not be recorded, so it is never lost.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg queue.Message) error {
	n := msg.Notification

	status, err := d.tracker.Status(ctx, n.ID)
	switch {
	case errors.Is(err, notification.ErrNotificationNotFound):
		zlog.Logger.Warn().Str("id", n.ID.String()).Msg("notification not found, dropping message")
		ack(msg)
		return nil
	case err != nil:
		nack(msg)
		return fmt.Errorf("get notification status: %w", err)
	case status != model.StatusPending:
		zlog.Logger.Info().Str("id", n.ID.String()).Str("status", string(status)).Msg("notification already processed, skipping")
		ack(msg)
		return nil
	}

	if err := d.Deliver(ctx, n); err != nil {
		nack(msg)
		return err
	}

	ack(msg)
	return nil
}

// Deliver makes one delivery attempt for n.
//
// A successful send moves n to SENT. A failed send, including one over a
// channel without a provider, hands n to the retry queue. An error means
// neither outcome could be recorded.
func (d *Dispatcher) Deliver(ctx context.Context, n model.Notification) error {
	if !d.send(ctx, n) {
		if err := d.publisher.Retry(ctx, n); err != nil {
			return fmt.Errorf("enqueue retry: %w", err)
		}

		zlog.Logger.Info().Str("id", n.ID.String()).Int("retry_count", n.RetryCount).Msg("delivery failed, scheduled for retry")
		return nil
	}

	err := d.tracker.MarkSent(ctx, n.ID)
	switch {
	case err == nil:
		zlog.Logger.Info().Str("id", n.ID.String()).Str("channel", string(n.Channel)).Msg("notification sent")
	case settled(err):
		zlog.Logger.Warn().Err(err).Str("id", n.ID.String()).Msg("notification sent but status not updated")
	default:
		return err
	}

	return nil
}

func (d *Dispatcher) send(ctx context.Context, n model.Notification) bool {
	p, err := d.providers.Resolve(n.Channel)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Msg("cannot deliver notification")
		return false
	}

	return p.Send(ctx, n)
}

// settled reports whether err means the record has moved on without us:
// it is gone, or a concurrent transition already took it elsewhere.
func settled(err error) bool {
	return errors.Is(err, notification.ErrNotificationNotFound) || errors.Is(err, notification.ErrStaleUpdate)
}

func ack(msg queue.Message) {
	if err := msg.Ack(); err != nil {
		zlog.Logger.Error().Err(err).Str("id", msg.Notification.ID.String()).Msg("failed to ack message")
	}
}

func nack(msg queue.Message) {
	if err := msg.Nack(true); err != nil {
		zlog.Logger.Error().Err(err).Str("id", msg.Notification.ID.String()).Msg("failed to nack message")
	}
}
