package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message type, classified once at submission time and never re-derived
// from persisted state.
const (
	TypeUnknown int32 = 0
	TypeText    int32 = 1
	TypeLink    int32 = 2
	TypeImage   int32 = 3
	TypeCommand int32 = 4
)

type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner     string             `bson:"owner" json:"owner"`
	Chatroom  primitive.ObjectID `bson:"chatroom" json:"chatroom"`
	Type      int32              `bson:"type" json:"type"`
	Body      string             `bson:"message" json:"message"`
	Status    int32              `bson:"status" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"-"`
}

func (m *Message) GetTableName() string {
	return "messages"
}
