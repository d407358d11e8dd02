package mgo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Config struct {
	URI      string
	Database string
	Timeout  time.Duration // connect+ping budget, default 10s
}

// Open connects, pings, and returns the database handle. Callers own the
// client lifecycle via Close.
func Open(ctx context.Context, cfg Config) (*mongo.Database, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	cli, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(64).
		SetRetryWrites(true))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongo ping")
	}
	return cli.Database(cfg.Database), nil
}

func Close(db *mongo.Database) {
	if db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = db.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes the stores rely on. Idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := db.Collection("users")
	if _, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return errors.Wrap(err, "users index")
	}

	reqs := db.Collection("friend_requests")
	if _, err := reqs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sender", Value: 1}, {Key: "receiver", Value: 1}},
	}); err != nil {
		return errors.Wrap(err, "friend_requests index")
	}

	msgs := db.Collection("messages")
	if _, err := msgs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sender", Value: 1}, {Key: "receiver", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return errors.Wrap(err, "messages index")
	}
	return nil
}
