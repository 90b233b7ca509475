package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-dispatcher/internal/model"
)

type mailer interface {
	Send(to, subject, body string) error
}

// Email delivers notifications over SMTP.
type Email struct {
	client mailer
}

// NewEmail creates an email provider sending through client.
func NewEmail(client mailer) *Email {
	return &Email{client: client}
}

// Send mails the notification to the email metadata address, or to the user
// id when none is given.
func (e *Email) Send(_ context.Context, n model.Notification) bool {
	to, ok := n.MetadataString("email")
	if !ok {
		to = n.UserID
	}

	if err := e.client.Send(to, n.Title, n.Content); err != nil {
		zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Str("to", to).Msg("failed to send email")
		return false
	}

	return true
}

type texter interface {
	Send(ctx context.Context, to, body string) error
}

// SMS delivers notifications through an HTTP SMS gateway.
type SMS struct {
	client texter
}

// NewSMS creates an SMS provider sending through client.
func NewSMS(client texter) *SMS {
	return &SMS{client: client}
}

// Send texts the notification content to PhoneNumber(n).
func (s *SMS) Send(ctx context.Context, n model.Notification) bool {
	to := PhoneNumber(n)

	if err := s.client.Send(ctx, to, n.Content); err != nil {
		zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Str("to", to).Msg("failed to send sms")
		return false
	}

	return true
}

// In-app inbox limits.
const (
	InboxSize = 100
	InboxTTL  = 30 * 24 * time.Hour
)

type inbox interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type inboxEntry struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// InApp stores notifications in a capped per-user Redis list and announces
// them on the Redis channel of the same name.
type InApp struct {
	rdb inbox
}

// NewInApp creates an in-app provider backed by rdb.
func NewInApp(rdb inbox) *InApp {
	return &InApp{rdb: rdb}
}

// InboxKey returns the Redis key of a user's in-app inbox.
func InboxKey(userID string) string {
	return "notifications:" + userID
}

// Send pushes the notification into the user's inbox and publishes it.
func (a *InApp) Send(ctx context.Context, n model.Notification) bool {
	payload, err := json.Marshal(inboxEntry{
		ID:        n.ID.String(),
		Title:     n.Title,
		Content:   n.Content,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Msg("failed to marshal in-app notification")
		return false
	}

	key := InboxKey(n.UserID)

	if err := a.rdb.LPush(ctx, key, payload).Err(); err != nil {
		zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Str("key", key).Msg("failed to store in-app notification")
		return false
	}

	// trimming and expiry only bound the inbox; the notification is already stored
	if err := a.rdb.LTrim(ctx, key, 0, InboxSize-1).Err(); err != nil {
		zlog.Logger.Warn().Err(err).Str("key", key).Msg("failed to trim inbox")
	}
	if err := a.rdb.Expire(ctx, key, InboxTTL).Err(); err != nil {
		zlog.Logger.Warn().Err(err).Str("key", key).Msg("failed to set inbox ttl")
	}

	if err := a.rdb.Publish(ctx, key, payload).Err(); err != nil {
		zlog.Logger.Warn().Err(err).Str("key", key).Msg("failed to publish in-app notification")
	}

	return true
}
