package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-dispatcher/internal/rabbitmq/queue"
)

// ErrConsumerStopped is returned by Run when the queue stops delivering
// without the context being cancelled.
var ErrConsumerStopped = errors.New("consumer stopped unexpectedly")

//go:generate mockgen -source=consumer.go -destination=../mocks/worker/mock.go -package=mocks

type messageQueue interface {
	Consume(ctx context.Context, queueName string, prefetch int, out chan<- queue.Message) error
}

type messageHandler interface {
	HandleMessage(ctx context.Context, msg queue.Message) error
}

// Options configures a Consumer.
type Options struct {
	Queue          string         // queue to consume
	Workers        int            // concurrent handler invocations
	Prefetch       int            // unacknowledged deliveries held by the broker for us
	HandlerTimeout time.Duration  // limit of one handler invocation
	Retry          retry.Strategy // re-subscription after consume errors
}

// Consumer feeds messages of one queue to a handler from a fixed pool of workers.
type Consumer struct {
	queue   messageQueue
	handler messageHandler
	opts    Options
}

// NewConsumer creates a new Consumer.
func NewConsumer(q messageQueue, h messageHandler, opts Options) *Consumer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &Consumer{
		queue:   q,
		handler: h,
		opts:    opts,
	}
}

// Run consumes until ctx is cancelled and returns once every worker has
// finished its current message. Handler invocations are not cancelled with
// ctx; they run to completion or until HandlerTimeout.
//
// If the queue cannot be consumed any more after the resubscription
// attempts of Options.Retry, Run stops the workers and returns the error.
// Messages received but not yet handled are requeued before Run returns.
func (c *Consumer) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	msgChan := make(chan queue.Message, c.opts.Workers)
	consumed := make(chan error, 1)

	go func() {
		defer cancel()

		err := retry.Do(func() error {
			err := c.queue.Consume(runCtx, c.opts.Queue, c.opts.Prefetch, msgChan)
			if runCtx.Err() != nil {
				return nil
			}
			if err == nil {
				err = ErrConsumerStopped
			}
			zlog.Logger.Warn().Err(err).Str("queue", c.opts.Queue).Msg("consumer stopped, resubscribing")
			return err
		}, c.opts.Retry)
		if err == nil && ctx.Err() == nil {
			err = ErrConsumerStopped
		}
		if err != nil {
			zlog.Logger.Error().Err(err).Str("queue", c.opts.Queue).Msg("failed to consume messages")
		}

		consumed <- err
	}()

	wg.Add(c.opts.Workers)
	for i := 0; i < c.opts.Workers; i++ {
		go func(id int) {
			defer wg.Done()

			zlog.Logger.Debug().Str("queue", c.opts.Queue).Int("worker", id).Msg("worker started")

			for {
				select {
				case <-runCtx.Done():
					zlog.Logger.Debug().Str("queue", c.opts.Queue).Int("worker", id).Msg("worker shutting down")
					return
				case msg := <-msgChan:
					c.handle(ctx, msg)
				}
			}
		}(i)
	}

	err := <-consumed
	wg.Wait()
	c.requeue(msgChan)

	if err != nil {
		return fmt.Errorf("consume %s: %w", c.opts.Queue, err)
	}

	zlog.Logger.Info().Str("queue", c.opts.Queue).Msg("consumer stopped")
	return nil
}

// requeue returns messages that no worker picked up to the broker.
func (c *Consumer) requeue(msgChan <-chan queue.Message) {
	for {
		select {
		case msg := <-msgChan:
			if err := msg.Nack(true); err != nil {
				zlog.Logger.Error().Err(err).Str("id", msg.Notification.ID.String()).Msg("failed to requeue message")
			}
		default:
			return
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg queue.Message) {
	hctx := context.WithoutCancel(ctx)
	if c.opts.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(hctx, c.opts.HandlerTimeout)
		defer cancel()
	}

	if err := c.handler.HandleMessage(hctx, msg); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("queue", c.opts.Queue).
			Str("id", msg.Notification.ID.String()).
			Msg("failed to handle message")
	}
}
