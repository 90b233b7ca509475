package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	mocks "github.com/aliskhannn/notification-dispatcher/internal/mocks/status"
	"github.com/aliskhannn/notification-dispatcher/internal/model"
	"github.com/aliskhannn/notification-dispatcher/internal/repository/notification"
)

var strategy = retry.Strategy{Attempts: 1}

func setupTracker(t *testing.T) (*Tracker, *mocks.MocknotificationStore, *mocks.Mockcache) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMocknotificationStore(ctrl)
	c := mocks.NewMockcache(ctrl)

	return NewTracker(store, c, strategy), store, c
}

func TestTracker_Status_CacheHit(t *testing.T) {
	tracker, _, c := setupTracker(t)
	id := uuid.New()

	c.EXPECT().GetWithRetry(gomock.Any(), strategy, id.String()).Return("sent", nil)

	s, err := tracker.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, s)
}

func TestTracker_Status_CacheMissBackfills(t *testing.T) {
	tracker, store, c := setupTracker(t)
	id := uuid.New()

	gomock.InOrder(
		c.EXPECT().GetWithRetry(gomock.Any(), strategy, id.String()).Return("", redis.Nil),
		store.EXPECT().GetNotificationByID(gomock.Any(), id).Return(model.Notification{ID: id, Status: model.StatusRetrying}, nil),
		c.EXPECT().SetWithRetry(gomock.Any(), strategy, id.String(), "retrying").Return(nil),
	)

	s, err := tracker.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRetrying, s)
}

func TestTracker_Status_CacheErrorFallsBackToStore(t *testing.T) {
	tracker, store, c := setupTracker(t)
	id := uuid.New()

	c.EXPECT().GetWithRetry(gomock.Any(), strategy, id.String()).Return("", errors.New("connection refused"))
	store.EXPECT().GetNotificationByID(gomock.Any(), id).Return(model.Notification{ID: id, Status: model.StatusPending}, nil)
	c.EXPECT().SetWithRetry(gomock.Any(), strategy, id.String(), "pending").Return(errors.New("connection refused"))

	s, err := tracker.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, s)
}

func TestTracker_Status_NotFound(t *testing.T) {
	tracker, store, c := setupTracker(t)
	id := uuid.New()

	c.EXPECT().GetWithRetry(gomock.Any(), strategy, id.String()).Return("", redis.Nil)
	store.EXPECT().GetNotificationByID(gomock.Any(), id).Return(model.Notification{}, notification.ErrNotificationNotFound)

	_, err := tracker.Status(context.Background(), id)
	assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
}

func TestTracker_MarkSent(t *testing.T) {
	tracker, store, c := setupTracker(t)
	id := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }

	store.EXPECT().
		UpdateStatus(gomock.Any(), id, model.StatusUpdate{
			Status: model.StatusSent,
			SentAt: &now,
			From:   []model.Status{model.StatusPending, model.StatusRetrying},
		}).
		Return(nil)
	c.EXPECT().SetWithRetry(gomock.Any(), strategy, id.String(), "sent").Return(nil)

	require.NoError(t, tracker.MarkSent(context.Background(), id))
}

func TestTracker_MarkSent_AlreadySent(t *testing.T) {
	tracker, store, _ := setupTracker(t)
	id := uuid.New()

	store.EXPECT().UpdateStatus(gomock.Any(), id, gomock.Any()).Return(notification.ErrStaleUpdate)
	store.EXPECT().GetNotificationByID(gomock.Any(), id).Return(model.Notification{ID: id, Status: model.StatusSent}, nil)

	assert.NoError(t, tracker.MarkSent(context.Background(), id))
}

func TestTracker_MarkSent_AlreadyFailed(t *testing.T) {
	tracker, store, _ := setupTracker(t)
	id := uuid.New()

	store.EXPECT().UpdateStatus(gomock.Any(), id, gomock.Any()).Return(notification.ErrStaleUpdate)
	store.EXPECT().GetNotificationByID(gomock.Any(), id).Return(model.Notification{ID: id, Status: model.StatusFailed}, nil)

	assert.ErrorIs(t, tracker.MarkSent(context.Background(), id), notification.ErrStaleUpdate)
}

func TestTracker_MarkRetrying(t *testing.T) {
	tracker, store, c := setupTracker(t)
	id := uuid.New()
	due := time.Now().Add(time.Second)

	store.EXPECT().
		UpdateStatus(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ interface{}, _ uuid.UUID, u model.StatusUpdate) error {
			assert.Equal(t, model.StatusRetrying, u.Status)
			require.NotNil(t, u.RetryCount)
			assert.Equal(t, 2, *u.RetryCount)
			require.NotNil(t, u.NextAttemptAt)
			assert.Equal(t, due, *u.NextAttemptAt)
			assert.Nil(t, u.SentAt)
			assert.ElementsMatch(t, []model.Status{model.StatusPending, model.StatusRetrying}, u.From)
			return nil
		})
	c.EXPECT().SetWithRetry(gomock.Any(), strategy, id.String(), "retrying").Return(nil)

	require.NoError(t, tracker.MarkRetrying(context.Background(), id, 2, due))
}

func TestTracker_MarkFailed(t *testing.T) {
	tracker, store, c := setupTracker(t)
	id := uuid.New()

	store.EXPECT().
		UpdateStatus(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ interface{}, _ uuid.UUID, u model.StatusUpdate) error {
			assert.Equal(t, model.StatusFailed, u.Status)
			require.NotNil(t, u.RetryCount)
			assert.Equal(t, 4, *u.RetryCount)
			assert.Nil(t, u.NextAttemptAt)
			assert.Equal(t, []model.Status{model.StatusRetrying}, u.From)
			return nil
		})
	c.EXPECT().SetWithRetry(gomock.Any(), strategy, id.String(), "failed").Return(nil)

	require.NoError(t, tracker.MarkFailed(context.Background(), id, 4))
}

func TestTracker_MarkFailed_Stale(t *testing.T) {
	tracker, store, _ := setupTracker(t)
	id := uuid.New()

	store.EXPECT().UpdateStatus(gomock.Any(), id, gomock.Any()).Return(notification.ErrStaleUpdate)

	assert.ErrorIs(t, tracker.MarkFailed(context.Background(), id, 1), notification.ErrStaleUpdate)
}
