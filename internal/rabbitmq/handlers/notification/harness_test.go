package notification

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/notification-dispatcher/internal/model"
	"github.com/aliskhannn/notification-dispatcher/internal/provider"
	"github.com/aliskhannn/notification-dispatcher/internal/rabbitmq/queue"
	"github.com/aliskhannn/notification-dispatcher/internal/repository/notification"
	"github.com/aliskhannn/notification-dispatcher/internal/status"
)

// memStore applies the same guarded updates as the real repositories.
type memStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]model.Notification
	history map[uuid.UUID][]model.Status
	getErr  error

	updateErr   error
	updateFails int
}

func newMemStore() *memStore {
	return &memStore{
		records: map[uuid.UUID]model.Notification{},
		history: map[uuid.UUID][]model.Status{},
	}
}

func (s *memStore) put(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[n.ID] = n
}

func (s *memStore) get(id uuid.UUID) model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.records[id]
}

func (s *memStore) delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
}

func (s *memStore) transitions(id uuid.UUID) []model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.history[id])
}

func (s *memStore) failGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getErr = err
}

// failUpdates makes the next n UpdateStatus calls return err.
func (s *memStore) failUpdates(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateFails = n
	s.updateErr = err
}

func (s *memStore) GetNotificationByID(_ context.Context, id uuid.UUID) (model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return model.Notification{}, s.getErr
	}

	n, ok := s.records[id]
	if !ok {
		return model.Notification{}, notification.ErrNotificationNotFound
	}

	return n, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id uuid.UUID, u model.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateFails > 0 {
		s.updateFails--
		return s.updateErr
	}

	n, ok := s.records[id]
	if !ok {
		return notification.ErrNotificationNotFound
	}

	if !slices.Contains(u.From, n.Status) || (u.RetryCount != nil && n.RetryCount > *u.RetryCount) {
		return notification.ErrStaleUpdate
	}

	n.Status = u.Status
	if u.RetryCount != nil {
		n.RetryCount = *u.RetryCount
	}
	if u.SentAt != nil {
		n.SentAt = u.SentAt
	}
	n.NextAttemptAt = u.NextAttemptAt
	n.UpdatedAt = time.Now()

	s.records[id] = n
	s.history[id] = append(s.history[id], u.Status)

	return nil
}

type memCache struct {
	mu     sync.Mutex
	values map[string]string
}

func (c *memCache) SetWithRetry(_ context.Context, _ retry.Strategy, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[key] = value.(string)
	return nil
}

func (c *memCache) GetWithRetry(_ context.Context, _ retry.Strategy, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.values[key]
	if !ok {
		return "", redis.Nil
	}

	return v, nil
}

// retryQueue collects notifications handed to the retry queue.
type retryQueue struct {
	mu      sync.Mutex
	pending []model.Notification
	err     error
}

func (q *retryQueue) Retry(_ context.Context, n model.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return q.err
	}

	q.pending = append(q.pending, n)
	return nil
}

func (q *retryQueue) pop() (model.Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return model.Notification{}, false
	}

	n := q.pending[0]
	q.pending = q.pending[1:]

	return n, true
}

// script is a provider returning scripted outcomes, then the last one forever.
type script struct {
	mu       sync.Mutex
	outcomes []bool
	attempts int
}

func (s *script) Send(context.Context, model.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := min(s.attempts, len(s.outcomes)-1)
	s.attempts++

	return s.outcomes[i]
}

func (s *script) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.attempts
}

// settlement records how a message was settled.
type settlement struct {
	mu      sync.Mutex
	acks    int
	nacks   int
	requeue bool
	done    chan struct{}
	once    sync.Once
}

func (s *settlement) Ack(uint64, bool) error {
	s.mu.Lock()
	s.acks++
	s.mu.Unlock()
	s.once.Do(func() { close(s.done) })

	return nil
}

func (s *settlement) Nack(_ uint64, _ bool, requeue bool) error {
	s.mu.Lock()
	s.nacks++
	s.requeue = requeue
	s.mu.Unlock()
	s.once.Do(func() { close(s.done) })

	return nil
}

func (s *settlement) Reject(tag uint64, requeue bool) error {
	return s.Nack(tag, false, requeue)
}

func (s *settlement) wait(t *testing.T) {
	t.Helper()

	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("message was never settled")
	}
}

func (s *settlement) acked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.acks == 1 && s.nacks == 0
}

func (s *settlement) requeued() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.acks == 0 && s.nacks == 1 && s.requeue
}

func newMessage(n model.Notification) (queue.Message, *settlement) {
	s := &settlement{done: make(chan struct{})}
	return queue.NewMessage(n, s, 1), s
}

type harness struct {
	store      *memStore
	retries    *retryQueue
	provider   *script
	tracker    *status.Tracker
	dispatcher *Dispatcher
	retry      *RetryHandler
}

func newHarness(t *testing.T, maxRetries int, interval time.Duration, outcomes ...bool) *harness {
	t.Helper()

	store := newMemStore()
	tracker := status.NewTracker(store, &memCache{values: map[string]string{}}, retry.Strategy{Attempts: 1})

	p := &script{outcomes: outcomes}
	registry := provider.NewRegistry()
	for _, c := range model.Channels {
		registry.Register(c, p)
	}

	retries := &retryQueue{}
	dispatcher := NewDispatcher(tracker, registry, retries)
	retryHandler := NewRetryHandler(tracker, dispatcher, RetryConfig{
		MaxRetries:     maxRetries,
		Interval:       interval,
		AttemptTimeout: time.Second,
	})

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = retryHandler.Shutdown(ctx)
	})

	return &harness{
		store:      store,
		retries:    retries,
		provider:   p,
		tracker:    tracker,
		dispatcher: dispatcher,
		retry:      retryHandler,
	}
}

func (h *harness) create(c model.Channel) model.Notification {
	now := time.Now()
	n := model.Notification{
		ID:        uuid.New(),
		UserID:    "user-1",
		Channel:   c,
		Title:     "title",
		Content:   "content",
		Metadata:  map[string]any{},
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	h.store.put(n)

	return n
}

// dispatch runs n through the dispatcher and waits for its settlement.
func (h *harness) dispatch(t *testing.T, n model.Notification) (*settlement, error) {
	t.Helper()

	msg, s := newMessage(n)
	err := h.dispatcher.HandleMessage(context.Background(), msg)
	s.wait(t)

	return s, err
}

// drainRetries feeds queued retries to the retry handler until none are left.
func (h *harness) drainRetries(t *testing.T) []*settlement {
	t.Helper()

	var settled []*settlement
	for {
		n, ok := h.retries.pop()
		if !ok {
			return settled
		}

		msg, s := newMessage(n)
		if err := h.retry.HandleMessage(context.Background(), msg); err != nil && !errors.Is(err, context.Canceled) {
			t.Logf("retry handler: %v", err)
		}
		s.wait(t)

		settled = append(settled, s)
	}
}
