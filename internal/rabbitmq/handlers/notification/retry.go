package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-dispatcher/internal/model"
	"github.com/aliskhannn/notification-dispatcher/internal/rabbitmq/queue"
	"github.com/aliskhannn/notification-dispatcher/internal/repository/notification"
)

type deliverer interface {
	Deliver(context.Context, model.Notification) error
}

// RetryConfig bounds and paces retry attempts.
type RetryConfig struct {
	MaxRetries     int           // attempts after the first one
	Interval       time.Duration // fixed wait before each retry attempt
	AttemptTimeout time.Duration // limit of one resubmitted attempt
}

// RetryHandler consumes failed deliveries and resubmits them after a fixed
// backoff until the retry bound is exhausted.
//
// The message of a waiting notification stays unacknowledged until its
// retry attempt finishes, so a restart redelivers it instead of losing it.
type RetryHandler struct {
	tracker    statusTracker
	dispatcher deliverer
	cfg        RetryConfig
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRetryHandler creates a new RetryHandler resubmitting through d.
func NewRetryHandler(t statusTracker, d deliverer, cfg RetryConfig) *RetryHandler {
	return &RetryHandler{
		tracker:    t,
		dispatcher: d,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
		stop:       make(chan struct{}),
	}
}

// HandleMessage records the next retry attempt of the notification and
// schedules it. It returns without waiting for the backoff.
func (h *RetryHandler) HandleMessage(ctx context.Context, msg queue.Message) error {
	n := msg.Notification
	next := n.RetryCount + 1

	if next > h.cfg.MaxRetries {
		if err := h.markFailed(ctx, n.ID, next); err != nil {
			nack(msg)
			return fmt.Errorf("mark notification %s failed: %w", n.ID, err)
		}

		zlog.Logger.Warn().Str("id", n.ID.String()).Int("retry_count", next).Msg("retries exhausted, notification failed")

		ack(msg)
		return nil
	}

	due := h.now().Add(h.cfg.Interval)

	if err := h.tracker.MarkRetrying(ctx, n.ID, next, due); err != nil {
		if settled(err) {
			zlog.Logger.Info().Err(err).Str("id", n.ID.String()).Msg("notification not eligible for retry, dropping message")
			ack(msg)
			return nil
		}

		return h.fail(ctx, msg, next, err)
	}

	zlog.Logger.Info().
		Str("id", n.ID.String()).
		Int("retry_count", next).
		Time("next_attempt_at", due).
		Msg("retry scheduled")

	h.wg.Add(1)
	go h.resume(context.WithoutCancel(ctx), msg, next, due)

	return nil
}

// resume waits until due and makes the retry attempt.
func (h *RetryHandler) resume(ctx context.Context, msg queue.Message, next int, due time.Time) {
	defer h.wg.Done()

	timer := time.NewTimer(due.Sub(h.now()))
	defer timer.Stop()

	select {
	case <-h.stop:
		zlog.Logger.Info().Str("id", msg.Notification.ID.String()).Msg("retry interrupted by shutdown, requeueing")
		nack(msg)
		return
	case <-timer.C:
	}

	if h.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.AttemptTimeout)
		defer cancel()
	}

	if err := h.attempt(ctx, msg, next); err != nil {
		_ = h.fail(ctx, msg, next, err)
		return
	}

	ack(msg)
}

func (h *RetryHandler) attempt(ctx context.Context, msg queue.Message, next int) error {
	id := msg.Notification.ID

	fresh, err := h.tracker.Get(ctx, id)
	if errors.Is(err, notification.ErrNotificationNotFound) {
		zlog.Logger.Warn().Str("id", id.String()).Msg("notification deleted while waiting for retry")
		return nil
	}
	if err != nil {
		return err
	}

	if fresh.Status != model.StatusRetrying || fresh.RetryCount != next {
		zlog.Logger.Info().
			Str("id", id.String()).
			Str("status", string(fresh.Status)).
			Int("retry_count", fresh.RetryCount).
			Msg("notification changed while waiting for retry, skipping")
		return nil
	}

	return h.dispatcher.Deliver(ctx, fresh)
}

// fail marks the notification FAILED after an infrastructure error in its
// retry path. The message is acknowledged only if the mark sticks.
func (h *RetryHandler) fail(ctx context.Context, msg queue.Message, next int, cause error) error {
	id := msg.Notification.ID

	zlog.Logger.Error().Err(cause).Str("id", id.String()).Msg("retry failed, marking notification failed")

	if err := h.markFailed(ctx, id, next); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to mark notification failed, requeueing")
		nack(msg)
		return fmt.Errorf("retry notification %s: %w", id, errors.Join(cause, err))
	}

	ack(msg)
	return fmt.Errorf("retry notification %s: %w", id, cause)
}

// markFailed moves the notification to FAILED. A stale update counts as done
// only when the notification is already terminal or a later attempt owns it.
// A notification still PENDING is left for the redelivered message.
func (h *RetryHandler) markFailed(ctx context.Context, id uuid.UUID, next int) error {
	err := h.tracker.MarkFailed(ctx, id, next)
	if err == nil || errors.Is(err, notification.ErrNotificationNotFound) {
		return nil
	}
	if !errors.Is(err, notification.ErrStaleUpdate) {
		return err
	}

	current, getErr := h.tracker.Get(ctx, id)
	switch {
	case errors.Is(getErr, notification.ErrNotificationNotFound):
		return nil
	case getErr != nil:
		return errors.Join(err, getErr)
	case current.Status.IsTerminal(), current.RetryCount > next:
		return nil
	}

	return fmt.Errorf("notification is %s: %w", current.Status, err)
}

// Shutdown cancels pending retries, requeueing their messages, and waits
// for attempts already in progress. Consumers must be stopped first.
func (h *RetryHandler) Shutdown(ctx context.Context) error {
	h.stopOnce.Do(func() { close(h.stop) })

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
