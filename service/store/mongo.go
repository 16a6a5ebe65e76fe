package store

import (
	"context"
	"errors"
	"time"

	chatmodel "PPHub/module/chat/model"
	usermodel "PPHub/module/user/model"
	"PPHub/tools/errs"
	"PPHub/tools/ids"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	db  *mongo.Database
	ids *ids.Generator
}

func NewMongoStore(db *mongo.Database, gen *ids.Generator) *MongoStore {
	return &MongoStore{db: db, ids: gen}
}

func (s *MongoStore) users() *mongo.Collection {
	return s.db.Collection((&usermodel.User{}).GetTableName())
}

func (s *MongoStore) groups() *mongo.Collection {
	return s.db.Collection((&chatmodel.Group{}).GetTableName())
}

func (s *MongoStore) members() *mongo.Collection {
	return s.db.Collection((&chatmodel.GroupMember{}).GetTableName())
}

// EnsureIndexes creates the indexes the hub's read paths rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.members().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return storeErr(err, "ensure group_members index")
	}
	_, err = s.db.Collection(chatmodel.MsgTableName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return storeErr(err, "ensure messages index")
	}
	_, err = s.db.Collection(chatmodel.GroupMsgTableName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return storeErr(err, "ensure group_messages index")
}

func (s *MongoStore) FindUser(ctx context.Context, id string) (*usermodel.User, error) {
	var u usermodel.User
	if err := s.users().FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, storeErr(err, "find user", "id", id)
	}
	return &u, nil
}

func (s *MongoStore) UpdateUserStatus(ctx context.Context, id, status string) error {
	if !usermodel.ValidStatus(status) {
		return errs.ErrValidation.WrapMsg("invalid status", "status", status)
	}
	now := time.Now()
	res, err := s.users().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "last_active": now, "update_time": now}},
	)
	if err != nil {
		return storeErr(err, "update user status", "id", id)
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound.WrapMsg("user", "id", id)
	}
	return nil
}

func (s *MongoStore) CreateMessage(ctx context.Context, m *chatmodel.Message) (*chatmodel.Message, error) {
	out := *m
	if out.ID == "" {
		out.ID = s.ids.NextString()
	}
	if out.Attachments == nil {
		out.Attachments = []string{}
	}
	if _, err := s.db.Collection(chatmodel.MsgTableName).InsertOne(ctx, &out); err != nil {
		return nil, storeErr(err, "create message", "sender", m.SenderID)
	}
	return &out, nil
}

func (s *MongoStore) CreateGroupMessage(ctx context.Context, m *chatmodel.GroupMessage) (*chatmodel.GroupMessage, error) {
	out := *m
	if out.ID == "" {
		out.ID = s.ids.NextString()
	}
	if out.Attachments == nil {
		out.Attachments = []string{}
	}
	if _, err := s.db.Collection(chatmodel.GroupMsgTableName).InsertOne(ctx, &out); err != nil {
		return nil, storeErr(err, "create group message", "group", m.GroupID)
	}
	return &out, nil
}

func (s *MongoStore) ListGroupMembers(ctx context.Context, groupID string) ([]chatmodel.GroupMember, error) {
	cur, err := s.members().Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, storeErr(err, "list group members", "group", groupID)
	}
	var out []chatmodel.GroupMember
	if err := cur.All(ctx, &out); err != nil {
		return nil, storeErr(err, "decode group members", "group", groupID)
	}
	return out, nil
}

func (s *MongoStore) FindGroup(ctx context.Context, id string) (*chatmodel.Group, error) {
	var g chatmodel.Group
	if err := s.groups().FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, storeErr(err, "find group", "id", id)
	}
	return &g, nil
}

// storeErr maps driver errors onto the store taxonomy.
func storeErr(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound.WrapMsg(msg, kv...)
	}
	return errs.WrapMsg(errs.ErrTransientStore.WrapMsg(err.Error()), msg, kv...)
}
