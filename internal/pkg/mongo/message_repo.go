package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrMessageNotFound 查询不到指定消息
var ErrMessageNotFound = errors.New("message not found")

type MessageRepo interface {
	SaveMessage(ctx context.Context, msg *Message) error
	GetMessage(ctx context.Context, messageID string) (*Message, error)
	GetMessages(ctx context.Context, messageIDs []string) ([]*Message, error)
	GetAllByConversation(ctx context.Context, convID uint64) ([]*Message, error)
	UpdateText(ctx context.Context, messageID string, text string) (*Message, error)
	MarkDeleted(ctx context.Context, messageIDs []string) (int64, error)
}

type messageRepoImpl struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepoImpl{
		col: db.Collection("message"),
	}
}

// SaveMessage 将消息存入 MongoDB 并回填生成的 ObjectID
func (s *messageRepoImpl) SaveMessage(ctx context.Context, msg *Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	res, err := s.col.InsertOne(ctx, msg)
	if err != nil {
		return errors.Wrap(err, "insert message")
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid.Hex()
	}
	return nil
}

// GetMessage 按 ID 精确查询
func (s *messageRepoImpl) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return nil, ErrMessageNotFound
	}

	var msg Message
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&msg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMessageNotFound
		}
		return nil, errors.Wrap(err, "find message")
	}
	return &msg, nil
}

// GetMessages 批量查询, 保持与入参无关的自然顺序
func (s *messageRepoImpl) GetMessages(ctx context.Context, messageIDs []string) ([]*Message, error) {
	oids := make([]primitive.ObjectID, 0, len(messageIDs))
	for _, id := range messageIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			// 非法 ID 等价于不存在, 由调用方比对数量后报错
			continue
		}
		oids = append(oids, oid)
	}

	cursor, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, errors.Wrap(err, "find messages")
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var messages []*Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return messages, nil
}

// GetAllByConversation 拉取会话全量历史, 按发送时间升序
func (s *messageRepoImpl) GetAllByConversation(ctx context.Context, convID uint64) ([]*Message, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := s.col.Find(ctx, bson.M{"conversation_id": convID}, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "find conversation messages")
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var messages []*Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, errors.Wrap(err, "decode conversation messages")
	}
	return messages, nil
}

// UpdateText 更新文本并打上编辑标记, 返回更新后的文档
func (s *messageRepoImpl) UpdateText(ctx context.Context, messageID string, text string) (*Message, error) {
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return nil, ErrMessageNotFound
	}

	after := options.After
	opts := options.FindOneAndUpdate().SetReturnDocument(after)

	var msg Message
	err = s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"text": text, "is_edited": true}},
		opts,
	).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMessageNotFound
		}
		return nil, errors.Wrap(err, "update message text")
	}
	return &msg, nil
}

// MarkDeleted 批量打软删除标记
func (s *messageRepoImpl) MarkDeleted(ctx context.Context, messageIDs []string) (int64, error) {
	oids := make([]primitive.ObjectID, 0, len(messageIDs))
	for _, id := range messageIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return 0, ErrMessageNotFound
		}
		oids = append(oids, oid)
	}

	res, err := s.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": oids}},
		bson.M{"$set": bson.M{"is_deleted": true}},
	)
	if err != nil {
		return 0, errors.Wrap(err, "mark messages deleted")
	}
	return res.ModifiedCount, nil
}
