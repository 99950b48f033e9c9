package message

import (
	"context"
	"time"

	"ChatRelay/module/message/model"
	roommodel "ChatRelay/module/room/model"
	"ChatRelay/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repo struct {
	coll *mongo.Collection
}

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{coll: db.Collection((&model.Message{}).GetTableName())}
}

func visible(filter bson.M) bson.M {
	if filter == nil {
		filter = bson.M{}
	}
	if _, ok := filter["status"]; !ok {
		filter["status"] = bson.M{"$gt": roommodel.StatusUnknown}
	}
	return filter
}

// Create persists one classified message. Type is whatever the session
// layer decided at submission time.
func (r *Repo) Create(ctx context.Context, owner, roomID string, msgType int32, body string) (*model.Message, error) {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, errs.ErrRoomNotFound.WithDetail("bad chatroom id")
	}
	now := time.Now()
	doc := &model.Message{
		Owner:     owner,
		Chatroom:  oid,
		Type:      msgType,
		Body:      body,
		Status:    roommodel.StatusEnabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, errs.WrapMsg(err, "insert message", "chatroom", roomID)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc, nil
}

// HistoryOptions builds the find options for a paginated history read:
// newest first, skip then bound by limit. limit <= 0 falls back to
// defaultLimit so a client can't request an unbounded page.
func HistoryOptions(skip, limit, defaultLimit int64) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	opts.SetLimit(limit)
	return opts
}

// History returns up to limit messages of a room ordered by creation
// time descending, skipping the `skip` most recent. An empty page is
// success, not an error.
func (r *Repo) History(ctx context.Context, roomID string, skip, limit, defaultLimit int64) ([]*model.Message, error) {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, errs.ErrRoomNotFound.WithDetail("bad chatroom id")
	}

	cur, err := r.coll.Find(ctx, visible(bson.M{"chatroom": oid}), HistoryOptions(skip, limit, defaultLimit))
	if err != nil {
		return nil, errs.WrapMsg(err, "find history", "chatroom", roomID)
	}
	defer func() { _ = cur.Close(ctx) }()

	out := make([]*model.Message, 0)
	for cur.Next(ctx) {
		var msg model.Message
		if err := cur.Decode(&msg); err != nil {
			return nil, errs.Wrap(err, "decode message")
		}
		out = append(out, &msg)
	}
	return out, errs.Wrap(cur.Err(), "history cursor")
}

// SoftDelete hides a message from every future read.
func (r *Repo) SoftDelete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.ErrSendMessage.WithDetail("bad message id")
	}
	update := bson.M{"$set": bson.M{"status": roommodel.StatusSoftDelete, "updatedAt": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, visible(bson.M{"_id": oid}), update)
	if err != nil {
		return errs.WrapMsg(err, "soft-delete message", "id", id)
	}
	if res.MatchedCount == 0 {
		return errs.ErrSendMessage.WithDetail("message not found")
	}
	return nil
}

// EnsureIndexes creates the history index (room + createdAt desc).
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chatroom", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return errs.Wrap(err, "ensure message indexes")
}
