package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Friend request lifecycle states. An accepted request IS the friendship:
// there is no separate friends collection, friend queries scan accepted
// requests in both directions.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

type FriendRequest struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sender   string             `bson:"sender" json:"sender"`     // user id (hex)
	Receiver string             `bson:"receiver" json:"receiver"` // user id (hex)
	Status   string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	HandledAt time.Time `bson:"handled_at,omitempty" json:"handledAt,omitempty"`
}
