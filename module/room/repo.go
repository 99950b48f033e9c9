package room

import (
	"context"
	"time"

	"ChatRelay/module/room/model"
	"ChatRelay/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repo is the chatroom face of the storage collaborator. Membership is
// owned here; the session layer only mirrors the result.
type Repo struct {
	coll *mongo.Collection
}

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{coll: db.Collection((&model.Room{}).GetTableName())}
}

// visible restricts any filter to live documents (soft-delete aware).
func visible(filter bson.M) bson.M {
	if filter == nil {
		filter = bson.M{}
	}
	if _, ok := filter["status"]; !ok {
		filter["status"] = bson.M{"$gt": model.StatusUnknown}
	}
	return filter
}

// Create registers a room with the caller as owner and sole member.
// A duplicate name surfaces as ErrRoomConflict.
func (r *Repo) Create(ctx context.Context, name, topic, owner string) (*model.Room, error) {
	ownerID, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return nil, errs.ErrRoomNotFound.WithDetail("bad owner id")
	}
	now := time.Now()
	doc := &model.Room{
		Name:      name,
		Topic:     topic,
		Owner:     owner,
		Users:     []primitive.ObjectID{ownerID},
		Status:    model.StatusEnabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errs.ErrRoomConflict
		}
		return nil, errs.WrapMsg(err, "insert chatroom", "name", name)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc, nil
}

// Fetch loads one visible room by ID; extra narrows the match (e.g. the
// membership filter used by send-message).
func (r *Repo) Fetch(ctx context.Context, id string, extra bson.M) (*model.Room, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.ErrRoomNotFound.WithDetail("bad chatroom id")
	}
	filter := visible(bson.M{"_id": oid})
	for k, v := range extra {
		filter[k] = v
	}
	var out model.Room
	if err := r.coll.FindOne(ctx, filter).Decode(&out); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrRoomNotFound
		}
		return nil, errs.WrapMsg(err, "fetch chatroom", "id", id)
	}
	return &out, nil
}

// FetchAll streams every visible room matching filter through fn; the
// cursor stays lazy so large room sets don't get buffered.
func (r *Repo) FetchAll(ctx context.Context, filter bson.M, fn func(*model.Room) error) error {
	cur, err := r.coll.Find(ctx, visible(filter))
	if err != nil {
		return errs.Wrap(err, "find chatrooms")
	}
	defer func() { _ = cur.Close(ctx) }()

	for cur.Next(ctx) {
		var room model.Room
		if err := cur.Decode(&room); err != nil {
			return errs.Wrap(err, "decode chatroom")
		}
		if err := fn(&room); err != nil {
			return err
		}
	}
	return cur.Err()
}

// RoomsOf lists the rooms an account currently belongs to. Presence
// notifications derive their target scopes from this at transition time.
func (r *Repo) RoomsOf(ctx context.Context, user string) ([]*model.Room, error) {
	uid, err := primitive.ObjectIDFromHex(user)
	if err != nil {
		return nil, errs.ErrRoomNotFound.WithDetail("bad user id")
	}
	var out []*model.Room
	err = r.FetchAll(ctx, bson.M{"users": uid}, func(room *model.Room) error {
		out = append(out, room)
		return nil
	})
	return out, err
}

// AddUser adds the account to the member set. The update filter matches
// only when the account is not yet a member, so the "membership changed"
// decision is a single atomic operation: concurrent joins of the same
// account can't both observe a change (a repeated join must not
// re-publish the event).
func (r *Repo) AddUser(ctx context.Context, id, user string) (*model.Room, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false, errs.ErrRoomNotFound.WithDetail("bad chatroom id")
	}
	uid, err := primitive.ObjectIDFromHex(user)
	if err != nil {
		return nil, false, errs.ErrRoomNotFound.WithDetail("bad user id")
	}

	update := bson.M{
		"$addToSet": bson.M{"users": uid},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	filter := visible(bson.M{"_id": oid, "users": bson.M{"$ne": uid}})
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out model.Room
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err == nil {
		return &out, true, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, errs.WrapMsg(err, "join chatroom", "id", id, "user", user)
	}

	// no match: already a member, or no such room
	room, ferr := r.Fetch(ctx, id, nil)
	if ferr != nil {
		return nil, false, ferr
	}
	return room, false, nil
}

// RemoveUser pulls the account from the member set. Same atomicity as
// AddUser: the filter matches only current members, so the bool result
// is false exactly when the account never was one (leave event
// suppressed).
func (r *Repo) RemoveUser(ctx context.Context, id, user string) (*model.Room, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false, errs.ErrRoomNotFound.WithDetail("bad chatroom id")
	}
	uid, err := primitive.ObjectIDFromHex(user)
	if err != nil {
		return nil, false, errs.ErrRoomNotFound.WithDetail("bad user id")
	}

	update := bson.M{
		"$pull": bson.M{"users": uid},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	filter := visible(bson.M{"_id": oid, "users": uid})
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out model.Room
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err == nil {
		return &out, true, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, errs.WrapMsg(err, "leave chatroom", "id", id, "user", user)
	}

	room, ferr := r.Fetch(ctx, id, nil)
	if ferr != nil {
		return nil, false, ferr
	}
	return room, false, nil
}

// SoftDelete marks the room deleted; readers never see it again.
func (r *Repo) SoftDelete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.ErrRoomNotFound.WithDetail("bad chatroom id")
	}
	update := bson.M{"$set": bson.M{"status": model.StatusSoftDelete, "updatedAt": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, visible(bson.M{"_id": oid}), update)
	if err != nil {
		return errs.WrapMsg(err, "soft-delete chatroom", "id", id)
	}
	if res.MatchedCount == 0 {
		return errs.ErrRoomNotFound
	}
	return nil
}

// EnsureIndexes creates the unique name index (duplicate-name create
// conflicts depend on it).
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return errs.Wrap(err, "ensure chatroom indexes")
}
