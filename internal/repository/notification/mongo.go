package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/aliskhannn/notification-dispatcher/internal/model"
)

const collectionName = "notifications"

// MongoRepository stores notifications in a MongoDB collection.
type MongoRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// document is the stored shape of a notification.
type document struct {
	ID            string         `bson:"_id"`
	UserID        string         `bson:"userId"`
	Channel       string         `bson:"type"`
	Title         string         `bson:"title"`
	Content       string         `bson:"content"`
	Metadata      map[string]any `bson:"metadata"`
	Status        string         `bson:"status"`
	RetryCount    int            `bson:"retryCount"`
	NextAttemptAt *time.Time     `bson:"nextAttemptAt"`
	SentAt        *time.Time     `bson:"sentAt,omitempty"`
	CreatedAt     time.Time      `bson:"createdAt"`
	UpdatedAt     time.Time      `bson:"updatedAt"`
}

// ConnectMongo connects to the deployment at uri, verifies it with a ping and
// returns a repository over the notifications collection of database.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoRepository, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return NewMongoRepository(client, client.Database(database)), nil
}

// NewMongoRepository creates a repository over the notifications collection of db.
func NewMongoRepository(client *mongo.Client, db *mongo.Database) *MongoRepository {
	return &MongoRepository{client: client, coll: db.Collection(collectionName)}
}

// EnsureIndexes creates the per-user listing index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	return nil
}

// CreateNotification inserts a new notification and returns its generated ID.
func (r *MongoRepository) CreateNotification(ctx context.Context, n model.Notification) (uuid.UUID, error) {
	n.ID = uuid.New()

	if _, err := r.coll.InsertOne(ctx, toDocument(n)); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return n.ID, nil
}

// GetNotificationByID retrieves a notification by its ID.
func (r *MongoRepository) GetNotificationByID(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	var doc document
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Notification{}, ErrNotificationNotFound
		}

		return model.Notification{}, fmt.Errorf("failed to get notification: %w", err)
	}

	return fromDocument(doc)
}

// UpdateStatus applies a guarded status update with the same semantics as
// Repository.UpdateStatus.
func (r *MongoRepository) UpdateStatus(ctx context.Context, id uuid.UUID, u model.StatusUpdate) error {
	filter := statusFilter(id, u)
	set := statusSet(u, time.Now().UTC())

	res, err := r.coll.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	if res.MatchedCount > 0 {
		return nil
	}

	count, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return fmt.Errorf("failed to check notification: %w", err)
	}

	return missError(count > 0)
}

// statusFilter matches the notification only while it may still move to
// u.Status and, when u carries a retry count, has not passed it.
func statusFilter(id uuid.UUID, u model.StatusUpdate) bson.D {
	filter := bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "status", Value: bson.D{{Key: "$in", Value: fromStatuses(u)}}},
	}
	if u.RetryCount != nil {
		filter = append(filter, bson.E{Key: "retryCount", Value: bson.D{{Key: "$lte", Value: *u.RetryCount}}})
	}

	return filter
}

// statusSet builds the $set document of u. sentAt and retryCount are left
// untouched when u does not carry them.
func statusSet(u model.StatusUpdate, now time.Time) bson.D {
	set := bson.D{
		{Key: "status", Value: string(u.Status)},
		{Key: "nextAttemptAt", Value: u.NextAttemptAt},
		{Key: "updatedAt", Value: now},
	}
	if u.RetryCount != nil {
		set = append(set, bson.E{Key: "retryCount", Value: *u.RetryCount})
	}
	if u.SentAt != nil {
		set = append(set, bson.E{Key: "sentAt", Value: u.SentAt.UTC()})
	}

	return set
}

// GetNotificationsByUser retrieves all notifications of a user, newest first.
func (r *MongoRepository) GetNotificationsByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode user notifications: %w", err)
	}

	notifications := make([]model.Notification, 0, len(docs))
	for _, doc := range docs {
		n, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}

		notifications = append(notifications, n)
	}

	return notifications, nil
}

// Ping checks that the deployment is reachable.
func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.client.Disconnect(ctx)
}

func toDocument(n model.Notification) document {
	metadata := n.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return document{
		ID:            n.ID.String(),
		UserID:        n.UserID,
		Channel:       string(n.Channel),
		Title:         n.Title,
		Content:       n.Content,
		Metadata:      metadata,
		Status:        string(n.Status),
		RetryCount:    n.RetryCount,
		NextAttemptAt: n.NextAttemptAt,
		SentAt:        n.SentAt,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}

func fromDocument(doc document) (model.Notification, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return model.Notification{}, fmt.Errorf("invalid notification id %q: %w", doc.ID, err)
	}

	metadata := doc.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return model.Notification{
		ID:            id,
		UserID:        doc.UserID,
		Channel:       model.Channel(doc.Channel),
		Title:         doc.Title,
		Content:       doc.Content,
		Metadata:      metadata,
		Status:        model.Status(doc.Status),
		RetryCount:    doc.RetryCount,
		NextAttemptAt: doc.NextAttemptAt,
		SentAt:        doc.SentAt,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}
