package service

import (
	"context"
	"time"

	"LinkIM/module/chat/model"
	"LinkIM/service/chat"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageService owns the messages collection and implements the
// gateway's MessageStore collaborator.
type MessageService struct {
	col *mongo.Collection
}

func NewMessageService(db *mongo.Database) *MessageService {
	return &MessageService{col: db.Collection("messages")}
}

// History returns the full conversation between two users, oldest first.
func (s *MessageService) History(ctx context.Context, a, b string) ([]model.Message, error) {
	cur, err := s.col.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"sender": a, "receiver": b},
		bson.M{"sender": b, "receiver": a},
	}}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find messages")
	}
	defer cur.Close(ctx)
	var out []model.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return out, nil
}

func (s *MessageService) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}

// ===== chat.MessageStore =====

func (s *MessageService) Create(ctx context.Context, senderID, receiverID, content string) (chat.Message, error) {
	msg := &model.Message{
		ID:        primitive.NewObjectID(),
		Sender:    senderID,
		Receiver:  receiverID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if _, err := s.col.InsertOne(ctx, msg); err != nil {
		return nil, errors.Wrap(err, "insert message")
	}
	return msg, nil
}

// MarkRead flips every unread message from friendID to selfID.
func (s *MessageService) MarkRead(ctx context.Context, friendID, selfID string) error {
	_, err := s.col.UpdateMany(ctx,
		bson.M{"sender": friendID, "receiver": selfID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	return errors.Wrap(err, "mark read")
}

var _ chat.MessageStore = (*MessageService)(nil)
