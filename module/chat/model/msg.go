package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one direct message. The gateway core treats it as opaque
// except for the two endpoints, exposed via SenderID/ReceiverID.
type Message struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sender   string             `bson:"sender" json:"sender"`
	Receiver string             `bson:"receiver" json:"receiver"`
	Content  string             `bson:"content" json:"content"`

	IsRead    bool      `bson:"is_read" json:"isRead"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

func (m *Message) SenderID() string   { return m.Sender }
func (m *Message) ReceiverID() string { return m.Receiver }
