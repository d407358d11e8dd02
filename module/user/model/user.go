package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the account document. CodeName is the public handle users
// search each other by; Mobile and Password never leave the server.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName string             `bson:"full_name" json:"fullName"`
	CodeName string             `bson:"code_name" json:"codeName"` // unique, lowercase
	Mobile   string             `bson:"mobile" json:"-"`
	Password string             `bson:"password" json:"-"` // sha256 hex

	IsAdmin  bool      `bson:"is_admin" json:"isAdmin"`
	IsOnline bool      `bson:"is_online" json:"isOnline"`
	LastSeen time.Time `bson:"last_seen" json:"lastSeen"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
