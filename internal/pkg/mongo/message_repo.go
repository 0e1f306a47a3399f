package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidCursor 历史分页游标不是合法的 ObjectID
var ErrInvalidCursor = errors.New("invalid history cursor")

type MessageRepo interface {
	SaveMessage(ctx context.Context, msg *Message) error
	GetHistory(ctx context.Context, userID, peerID uint64, beforeID string, pageSize int) ([]*Message, error)
}

type messageRepoImpl struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepoImpl{
		col: db.Collection("message"),
	}
}

// SaveMessage 将消息存入 MongoDB
func (s *messageRepoImpl) SaveMessage(ctx context.Context, msg *Message) error {
	res, err := s.col.InsertOne(ctx, msg)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}
	return nil
}

// GetHistory 双方会话历史查询
// beforeID 为当前页面最旧一条消息的 ID，第一页传空
func (s *messageRepoImpl) GetHistory(ctx context.Context, userID, peerID uint64, beforeID string, pageSize int) ([]*Message, error) {
	// 基础过滤：双向消息
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender_id": userID, "recipient_id": peerID},
			bson.M{"sender_id": peerID, "recipient_id": userID},
		},
	}

	// 游标过滤：找比当前最旧一条更早的消息
	if beforeID != "" {
		oid, err := primitive.ObjectIDFromHex(beforeID)
		if err != nil {
			return nil, ErrInvalidCursor
		}
		filter["_id"] = bson.M{"$lt": oid}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(pageSize))

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var messages []*Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}
