package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepo interface {
	SaveNotifications(ctx context.Context, notifications []*Notification) error
	ListByUser(ctx context.Context, userID uint64, limit int) ([]*Notification, error)
	CountUnread(ctx context.Context, userID uint64) (int64, error)
	MarkAllRead(ctx context.Context, userID uint64) error
}

type notificationRepoImpl struct {
	col *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) NotificationRepo {
	return &notificationRepoImpl{
		col: db.Collection("notification"),
	}
}

// SaveNotifications 批量落库
func (s *notificationRepoImpl) SaveNotifications(ctx context.Context, notifications []*Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(notifications))
	for _, n := range notifications {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		docs = append(docs, n)
	}
	_, err := s.col.InsertMany(ctx, docs)
	return errors.Wrap(err, "insert notifications")
}

// ListByUser 按时间倒序拉取
func (s *notificationRepoImpl) ListByUser(ctx context.Context, userID uint64, limit int) ([]*Notification, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.col.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "find notifications")
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var notifications []*Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, errors.Wrap(err, "decode notifications")
	}
	return notifications, nil
}

// CountUnread 未读数
func (s *notificationRepoImpl) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	count, err := s.col.CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
	return count, errors.Wrap(err, "count unread notifications")
}

// MarkAllRead 全部置为已读
func (s *notificationRepoImpl) MarkAllRead(ctx context.Context, userID uint64) error {
	_, err := s.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	return errors.Wrap(err, "mark notifications read")
}
