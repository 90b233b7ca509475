package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/notification-dispatcher/internal/model"
)

const notificationColumns = `id, user_id, channel, title, content, metadata, status, retry_count,
		       next_attempt_at, sent_at, created_at, updated_at`

// Repository provides methods to interact with the notifications table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new notification repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// CreateNotification inserts a new notification into the database and returns its ID.
func (r *Repository) CreateNotification(ctx context.Context, n model.Notification) (uuid.UUID, error) {
	query := `
		INSERT INTO notifications (
		    user_id, channel, title, content, metadata, status, retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;
    `

	metadata, err := marshalMetadata(n.Metadata)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create notification: %w", err)
	}

	var id uuid.UUID
	err = r.db.Master.QueryRowContext(
		ctx, query,
		n.UserID, n.Channel, n.Title, n.Content, metadata, n.Status, n.RetryCount, n.CreatedAt, n.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return id, nil
}

// GetNotificationByID retrieves a notification by its ID.
func (r *Repository) GetNotificationByID(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE id = $1;
    `

	n, err := scanNotification(r.db.Master.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Notification{}, ErrNotificationNotFound
		}

		return model.Notification{}, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// UpdateStatus applies a guarded status update to the notification with the given ID.
//
// The row changes only if its status is one of u.From and, when u.RetryCount
// is set, its retry count does not exceed *u.RetryCount. sent_at is kept
// when u.SentAt is nil; next_attempt_at is always overwritten.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, u model.StatusUpdate) error {
	query := `
		UPDATE notifications
		SET status = $1,
		    retry_count = COALESCE($2, retry_count),
		    sent_at = COALESCE($3, sent_at),
		    next_attempt_at = $4,
		    updated_at = NOW()
		WHERE id = $5
		  AND status = ANY($6)
		  AND ($2::int IS NULL OR retry_count <= $2);
    `

	res, err := r.db.ExecContext(
		ctx, query, u.Status, u.RetryCount, u.SentAt, u.NextAttemptAt, id, pq.Array(fromStatuses(u)),
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	if rows > 0 {
		return nil
	}

	var exists bool
	err = r.db.Master.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1);`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check notification: %w", err)
	}

	return missError(exists)
}

// GetNotificationsByUser retrieves all notifications of a user, newest first.
func (r *Repository) GetNotificationsByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC;
    `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}

	return notifications, nil
}

// Ping checks that the master database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Master.PingContext(ctx)
}

// Close closes the master and every slave connection pool.
func (r *Repository) Close() error {
	errs := []error{r.db.Master.Close()}
	for _, s := range r.db.Slaves {
		errs = append(errs, s.Close())
	}

	return errors.Join(errs...)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(s scanner) (model.Notification, error) {
	var (
		n             model.Notification
		metadata      []byte
		nextAttemptAt sql.NullTime
		sentAt        sql.NullTime
	)

	err := s.Scan(
		&n.ID, &n.UserID, &n.Channel, &n.Title, &n.Content, &metadata, &n.Status, &n.RetryCount,
		&nextAttemptAt, &sentAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return model.Notification{}, err
	}

	n.Metadata = map[string]any{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return model.Notification{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	if nextAttemptAt.Valid {
		n.NextAttemptAt = &nextAttemptAt.Time
	}

	if sentAt.Valid {
		n.SentAt = &sentAt.Time
	}

	return n, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	return b, nil
}

// fromStatuses returns the guard statuses of u as strings, defaulting to
// every legal source of the target status.
func fromStatuses(u model.StatusUpdate) []string {
	from := u.From
	if len(from) == 0 {
		from = model.Sources(u.Status)
	}

	out := make([]string, 0, len(from))
	for _, s := range from {
		out = append(out, string(s))
	}

	return out
}
