package service

import (
	"context"
	"time"

	"LinkIM/module/chat/model"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrRequestExists   = errors.New("request already exists")
	ErrRequestNotFound = errors.New("request not found")
)

// FriendService owns the friend_requests collection and implements the
// gateway's FriendStore collaborator. Friendship = an accepted request in
// either direction.
type FriendService struct {
	col *mongo.Collection
}

func NewFriendService(db *mongo.Database) *FriendService {
	return &FriendService{col: db.Collection("friend_requests")}
}

func eitherDirection(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender": a, "receiver": b},
		bson.M{"sender": b, "receiver": a},
	}}
}

// Request creates a pending friend request unless one already links the
// two users (any status other than rejected blocks a new one).
func (s *FriendService) Request(ctx context.Context, senderID, receiverID string) (*model.FriendRequest, error) {
	filter := eitherDirection(senderID, receiverID)
	filter["status"] = bson.M{"$ne": model.RequestRejected}
	n, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "check existing request")
	}
	if n > 0 {
		return nil, ErrRequestExists
	}
	req := &model.FriendRequest{
		ID:        primitive.NewObjectID(),
		Sender:    senderID,
		Receiver:  receiverID,
		Status:    model.RequestPending,
		CreatedAt: time.Now(),
	}
	if _, err := s.col.InsertOne(ctx, req); err != nil {
		return nil, errors.Wrap(err, "insert request")
	}
	return req, nil
}

// Respond accepts or rejects a pending request addressed to userID.
func (s *FriendService) Respond(ctx context.Context, requestID, userID string, accept bool) (*model.FriendRequest, error) {
	oid, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		return nil, ErrRequestNotFound
	}
	status := model.RequestRejected
	if accept {
		status = model.RequestAccepted
	}
	var req model.FriendRequest
	err = s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "receiver": userID, "status": model.RequestPending},
		bson.M{"$set": bson.M{"status": status, "handled_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update request")
	}
	return &req, nil
}

// Pending lists incoming requests awaiting userID's decision.
func (s *FriendService) Pending(ctx context.Context, userID string) ([]model.FriendRequest, error) {
	cur, err := s.col.Find(ctx,
		bson.M{"receiver": userID, "status": model.RequestPending},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find pending")
	}
	defer cur.Close(ctx)
	var out []model.FriendRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode pending")
	}
	return out, nil
}

// ===== chat.FriendStore =====

func (s *FriendService) AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error) {
	cur, err := s.col.Find(ctx, bson.M{
		"status": model.RequestAccepted,
		"$or": bson.A{
			bson.M{"sender": userID},
			bson.M{"receiver": userID},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "find friends")
	}
	defer cur.Close(ctx)

	var reqs []model.FriendRequest
	if err := cur.All(ctx, &reqs); err != nil {
		return nil, errors.Wrap(err, "decode friends")
	}
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if r.Sender == userID {
			out = append(out, r.Receiver)
		} else {
			out = append(out, r.Sender)
		}
	}
	return out, nil
}

func (s *FriendService) AreFriends(ctx context.Context, a, b string) (bool, error) {
	filter := eitherDirection(a, b)
	filter["status"] = model.RequestAccepted
	n, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return false, errors.Wrap(err, "check friendship")
	}
	return n > 0, nil
}
