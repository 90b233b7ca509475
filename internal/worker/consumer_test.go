package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	mocks "github.com/aliskhannn/notification-dispatcher/internal/mocks/worker"
	"github.com/aliskhannn/notification-dispatcher/internal/model"
	"github.com/aliskhannn/notification-dispatcher/internal/rabbitmq/queue"
)

func options() Options {
	return Options{
		Queue:          "notifications",
		Workers:        2,
		Prefetch:       10,
		HandlerTimeout: time.Second,
		Retry:          retry.Strategy{Attempts: 1, Delay: time.Millisecond},
	}
}

func TestConsumer_Run_HandleMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueue := mocks.NewMockmessageQueue(ctrl)
	mockHandler := mocks.NewMockmessageHandler(ctrl)

	msg := queue.NewMessage(model.Notification{ID: uuid.New(), Channel: model.ChannelEmail}, nil, 1)
	handled := make(chan struct{})

	mockQueue.EXPECT().Consume(gomock.Any(), "notifications", 10, gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ int, out chan<- queue.Message) error {
			out <- msg
			<-ctx.Done()
			return nil
		},
	)
	mockHandler.EXPECT().HandleMessage(gomock.Any(), msg).DoAndReturn(
		func(ctx context.Context, _ queue.Message) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			close(handled)
			return nil
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewConsumer(mockQueue, mockHandler, options()).Run(ctx)
		close(done)
	}()

	select {
	case <-handled:
	case <-time.After(time.Second):
		t.Fatal("message was not handled")
	}

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumer_Run_HandlerOutlivesCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueue := mocks.NewMockmessageQueue(ctrl)
	mockHandler := mocks.NewMockmessageHandler(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	msg := queue.NewMessage(model.Notification{ID: uuid.New()}, nil, 1)
	started := make(chan struct{})

	mockQueue.EXPECT().Consume(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ int, out chan<- queue.Message) error {
			out <- msg
			<-ctx.Done()
			return nil
		},
	)

	var handlerErr error
	mockHandler.EXPECT().HandleMessage(gomock.Any(), msg).DoAndReturn(
		func(hctx context.Context, _ queue.Message) error {
			close(started)
			<-ctx.Done()
			time.Sleep(20 * time.Millisecond)
			handlerErr = hctx.Err()
			return nil
		},
	)

	done := make(chan struct{})
	go func() {
		NewConsumer(mockQueue, mockHandler, options()).Run(ctx)
		close(done)
	}()

	<-started
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}

	assert.NoError(t, handlerErr)
}

func TestConsumer_Run_HandlerErrorDoesNotStopWorkers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueue := mocks.NewMockmessageQueue(ctrl)
	mockHandler := mocks.NewMockmessageHandler(ctrl)

	first := queue.NewMessage(model.Notification{ID: uuid.New()}, nil, 1)
	second := queue.NewMessage(model.Notification{ID: uuid.New()}, nil, 2)
	handled := make(chan struct{}, 2)

	mockQueue.EXPECT().Consume(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ int, out chan<- queue.Message) error {
			out <- first
			out <- second
			<-ctx.Done()
			return nil
		},
	)
	mockHandler.EXPECT().HandleMessage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, queue.Message) error {
			handled <- struct{}{}
			return errors.New("boom")
		},
	).Times(2)

	opts := options()
	opts.Workers = 1

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewConsumer(mockQueue, mockHandler, opts).Run(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-handled:
		case <-time.After(time.Second):
			t.Fatal("message was not handled")
		}
	}

	cancel()
	<-done
}

func TestConsumer_Run_ResubscribesAfterConsumeError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueue := mocks.NewMockmessageQueue(ctrl)
	mockHandler := mocks.NewMockmessageHandler(ctrl)

	resubscribed := make(chan struct{})

	gomock.InOrder(
		mockQueue.EXPECT().Consume(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(queue.ErrDeliveriesClosed),
		mockQueue.EXPECT().Consume(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ string, _ int, _ chan<- queue.Message) error {
				close(resubscribed)
				<-ctx.Done()
				return nil
			},
		),
	)

	opts := options()
	opts.Retry = retry.Strategy{Attempts: 2, Delay: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewConsumer(mockQueue, mockHandler, opts).Run(ctx)
		close(done)
	}()

	select {
	case <-resubscribed:
	case <-time.After(time.Second):
		t.Fatal("consumer did not resubscribe")
	}

	cancel()
	<-done
}

func TestConsumer_Run_ReturnsErrorWhenConsumeGivesUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueue := mocks.NewMockmessageQueue(ctrl)
	mockHandler := mocks.NewMockmessageHandler(ctrl)

	mockQueue.EXPECT().Consume(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(queue.ErrDeliveriesClosed).
		MinTimes(1)

	opts := options()
	opts.Retry = retry.Strategy{Attempts: 2, Delay: time.Millisecond}

	errCh := make(chan error, 1)
	go func() {
		errCh <- NewConsumer(mockQueue, mockHandler, opts).Run(context.Background())
	}()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run kept blocking after consume gave up")
	}
}

func TestConsumer_Run_ReturnsErrorWhenDeliveriesStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueue := mocks.NewMockmessageQueue(ctrl)
	mockHandler := mocks.NewMockmessageHandler(ctrl)

	mockQueue.EXPECT().Consume(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		MinTimes(1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- NewConsumer(mockQueue, mockHandler, options()).Run(context.Background())
	}()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run kept blocking after deliveries stopped")
	}
}

func TestConsumer_Run_CancelReturnsNil(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueue := mocks.NewMockmessageQueue(ctrl)
	mockHandler := mocks.NewMockmessageHandler(ctrl)

	mockQueue.EXPECT().Consume(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ int, _ chan<- queue.Message) error {
			<-ctx.Done()
			return nil
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- NewConsumer(mockQueue, mockHandler, options()).Run(ctx)
	}()

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

type nackRecorder struct {
	mu      sync.Mutex
	requeue []bool
}

func (r *nackRecorder) Ack(uint64, bool) error { return nil }

func (r *nackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requeue = append(r.requeue, requeue)
	return nil
}

func (r *nackRecorder) Reject(tag uint64, requeue bool) error { return r.Nack(tag, false, requeue) }

func TestConsumer_RequeuesUnhandledMessages(t *testing.T) {
	acks := &nackRecorder{}
	msgChan := make(chan queue.Message, 2)
	msgChan <- queue.NewMessage(model.Notification{ID: uuid.New()}, acks, 1)
	msgChan <- queue.NewMessage(model.Notification{ID: uuid.New()}, acks, 2)

	NewConsumer(nil, nil, options()).requeue(msgChan)

	assert.Equal(t, []bool{true, true}, acks.requeue)
	assert.Empty(t, msgChan)
}

func TestNewConsumer_AtLeastOneWorker(t *testing.T) {
	c := NewConsumer(nil, nil, Options{})
	require.NotNil(t, c)
	assert.Equal(t, 1, c.opts.Workers)
}
