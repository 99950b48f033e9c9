package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base document status. Every read filters status > StatusUnknown, so
// soft-deleted and not-yet-enabled documents stay invisible; soft-delete
// flips the status field instead of removing the document.
const (
	StatusSoftDelete int32 = -1
	StatusUnknown    int32 = 0
	StatusDisabled   int32 = 1
	StatusEnabled    int32 = 2
)

// User presence status, emitted on the room scopes an account belongs to.
const (
	UserStatusUnknown int32 = 0
	UserStatusOnline  int32 = 1
	UserStatusOffline int32 = 2
)

// Room metadata plus the member set. The storage collaborator is the
// system of record for membership; workers only mirror it into their
// fan-out subscriptions.
type Room struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"` // unique
	Topic     string               `bson:"topic,omitempty" json:"topic,omitempty"`
	Owner     string               `bson:"owner" json:"owner"`
	Users     []primitive.ObjectID `bson:"users" json:"users"`
	Status    int32                `bson:"status" json:"-"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"-"`
}

func (r *Room) GetTableName() string {
	return "chatrooms"
}

// HasUser reports whether the account is part of the member set.
func (r *Room) HasUser(user string) bool {
	for _, u := range r.Users {
		if u.Hex() == user {
			return true
		}
	}
	return false
}
