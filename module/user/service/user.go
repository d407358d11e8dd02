package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"LinkIM/module/user/model"
	"LinkIM/service/chat"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrBadCredentials = errors.New("invalid code name or password")

// UserService backs both the REST account routes and the gateway's
// UserStore collaborator.
type UserService struct {
	col *mongo.Collection
}

func NewUserService(db *mongo.Database) *UserService {
	return &UserService{col: db.Collection("users")}
}

func HashPassword(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return hex.EncodeToString(sum[:])
}

// Register creates an account. CodeName is normalized to lowercase.
func (s *UserService) Register(ctx context.Context, fullName, codeName, mobile, password string) (*model.User, error) {
	u := &model.User{
		ID:        primitive.NewObjectID(),
		FullName:  strings.TrimSpace(fullName),
		CodeName:  strings.ToLower(strings.TrimSpace(codeName)),
		Mobile:    strings.TrimSpace(mobile),
		Password:  HashPassword(password),
		LastSeen:  time.Now(),
		CreatedAt: time.Now(),
	}
	if _, err := s.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errors.New("code name already taken")
		}
		return nil, errors.Wrap(err, "insert user")
	}
	return u, nil
}

// Login checks credentials and returns the account.
func (s *UserService) Login(ctx context.Context, codeName, password string) (*model.User, error) {
	var u model.User
	err := s.col.FindOne(ctx, bson.M{"code_name": strings.ToLower(strings.TrimSpace(codeName))}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	if u.Password != HashPassword(password) {
		return nil, ErrBadCredentials
	}
	return &u, nil
}

// Get fetches the full document, (nil, nil) when absent.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var u model.User
	err = s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	return &u, nil
}

// Search matches code names by prefix, excluding the requester.
func (s *UserService) Search(ctx context.Context, selfID, q string, limit int64) ([]model.User, error) {
	if limit <= 0 {
		limit = 20
	}
	filter := bson.M{
		"code_name": bson.M{"$regex": "^" + strings.ToLower(strings.TrimSpace(q))},
	}
	if oid, err := primitive.ObjectIDFromHex(selfID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	cur, err := s.col.Find(ctx, filter, options.Find().SetLimit(limit).SetSort(bson.D{{Key: "code_name", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "search users")
	}
	defer cur.Close(ctx)
	var out []model.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return out, nil
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}

// ===== chat.UserStore =====

func (s *UserService) FindByID(ctx context.Context, id string) (*chat.UserRecord, error) {
	u, err := s.Get(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	return &chat.UserRecord{ID: u.ID.Hex(), CodeName: u.CodeName, IsAdmin: u.IsAdmin}, nil
}

func (s *UserService) SetPresence(ctx context.Context, id string, online bool, lastSeen time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.Wrap(err, "bad user id")
	}
	_, err = s.col.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{"is_online": online, "last_seen": lastSeen},
	})
	return errors.Wrap(err, "set presence")
}
