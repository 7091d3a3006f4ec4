// internal/app/store/notifications/store.go
package notificationstore

import (
	"context"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListLimit caps how many notifications a recipient sees at once.
const ListLimit = 100

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// InsertMany stores ns, assigning ids and timestamps where missing.
func (s *Store) InsertMany(ctx context.Context, ns []models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]any, 0, len(ns))
	for i := range ns {
		if ns[i].ID.IsZero() {
			ns[i].ID = models.NewNotificationID()
		}
		if ns[i].CreatedAt.IsZero() {
			ns[i].CreatedAt = now
		}
		docs = append(docs, ns[i])
	}
	_, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return err
}

// ListForRecipient returns the newest notifications for recipient.
func (s *Store) ListForRecipient(ctx context.Context, recipient models.UserID, unreadOnly bool) ([]models.Notification, error) {
	filter := bson.M{"recipient_id": recipient}
	if unreadOnly {
		filter["read"] = false
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(ListLimit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadCount returns the number of unread notifications for recipient.
func (s *Store) UnreadCount(ctx context.Context, recipient models.UserID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"recipient_id": recipient, "read": false})
}

// MarkRead marks one notification read. A notification belonging to someone
// else is treated as not found.
func (s *Store) MarkRead(ctx context.Context, id models.NotificationID, recipient models.UserID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "recipient_id": recipient},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkAllRead marks every unread notification of recipient read and returns
// how many changed.
func (s *Store) MarkAllRead(ctx context.Context, recipient models.UserID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"recipient_id": recipient, "read": false},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
