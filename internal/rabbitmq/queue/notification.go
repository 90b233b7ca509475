package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-dispatcher/internal/config"
	"github.com/aliskhannn/notification-dispatcher/internal/model"
)

var (
	// ErrPublishNotConfirmed is returned when the broker nacks a published message.
	ErrPublishNotConfirmed = errors.New("publish not confirmed by broker")

	// ErrDeliveriesClosed is returned by Consume when the broker closes the delivery stream.
	ErrDeliveriesClosed = errors.New("delivery channel closed")
)

// Connect dials the broker, retrying with strategy.
func Connect(url string, strategy retry.Strategy) (*amqp.Connection, error) {
	var conn *amqp.Connection

	err := retry.Do(func() error {
		var err error
		conn, err = amqp.Dial(url)
		if err != nil {
			zlog.Logger.Warn().Err(err).Msg("rabbitmq is not reachable yet")
		}
		return err
	}, strategy)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	return conn, nil
}

// NotificationQueue publishes notifications to and consumes them from the
// dispatch and retry queues.
type NotificationQueue struct {
	conn *amqp.Connection
	pub  *amqp.Channel
	cfg  config.RabbitMQ

	mu        sync.Mutex
	consumers []*amqp.Channel
}

// NewNotificationQueue declares the exchange and both queues and opens a
// confirm-mode channel for publishing.
func NewNotificationQueue(conn *amqp.Connection, cfg config.RabbitMQ) (*NotificationQueue, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		_ = ch.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	return &NotificationQueue{conn: conn, pub: ch, cfg: cfg}, nil
}

func declareTopology(ch *amqp.Channel, cfg config.RabbitMQ) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	bindings := []struct{ queue, key string }{
		{cfg.DispatchQueue, cfg.DispatchKey},
		{cfg.RetryQueue, cfg.RetryKey},
	}

	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
		}

		if err := ch.QueueBind(b.queue, b.key, cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", b.queue, err)
		}
	}

	return nil
}

// Dispatch enqueues n for its first delivery attempt.
func (q *NotificationQueue) Dispatch(ctx context.Context, n model.Notification) error {
	return q.Publish(ctx, q.cfg.DispatchKey, n)
}

// Retry enqueues n for the retry handler.
func (q *NotificationQueue) Retry(ctx context.Context, n model.Notification) error {
	return q.Publish(ctx, q.cfg.RetryKey, n)
}

// Publish sends n as a persistent JSON message with the given routing key and
// waits for the broker to confirm it.
func (q *NotificationQueue) Publish(ctx context.Context, routingKey string, n model.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	dc, err := q.pub.PublishWithDeferredConfirmWithContext(ctx, q.cfg.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID.String(),
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to wait for publish confirm: %w", err)
	}

	if !acked {
		return ErrPublishNotConfirmed
	}

	return nil
}

// Consume delivers messages from queueName to out until ctx is cancelled.
//
// Each consumer gets its own channel limited to prefetch unacknowledged
// deliveries. Messages must be settled with Ack or Nack. On cancellation the
// consumer stops receiving but its channel stays open until Close, so
// messages already handed out can still be settled.
func (q *NotificationQueue) Consume(ctx context.Context, queueName string, prefetch int, out chan<- Message) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to set qos: %w", err)
	}

	tag := fmt.Sprintf("%s-%s", queueName, uuid.NewString())

	deliveries, err := ch.Consume(queueName, tag, false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.mu.Lock()
	q.consumers = append(q.consumers, ch)
	q.mu.Unlock()

	zlog.Logger.Info().Str("queue", queueName).Int("prefetch", prefetch).Msg("consuming")

	for {
		select {
		case <-ctx.Done():
			return q.cancel(ch, tag)
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}

			var n model.Notification
			if err := json.Unmarshal(d.Body, &n); err != nil {
				zlog.Logger.Error().Err(err).Str("queue", queueName).Msg("failed to unmarshal message, dropping")
				_ = d.Nack(false, false)
				continue
			}

			select {
			case out <- Message{Notification: n, delivery: d}:
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return q.cancel(ch, tag)
			}
		}
	}
}

func (q *NotificationQueue) cancel(ch *amqp.Channel, tag string) error {
	if err := ch.Cancel(tag, false); err != nil {
		return fmt.Errorf("failed to cancel consumer %s: %w", tag, err)
	}

	return nil
}

// Close closes the consumer and publisher channels and the connection.
func (q *NotificationQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var errs []error
	for _, ch := range q.consumers {
		errs = append(errs, ch.Close())
	}
	q.consumers = nil

	errs = append(errs, q.pub.Close(), q.conn.Close())

	return errors.Join(errs...)
}
