package store

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/realtime-chat/internal/apperr"
	"github.com/fathima-sithara/realtime-chat/internal/models"
)

// Connect opens and pings a Mongo client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: mongo connect: %v", apperr.ErrTransientIO, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: mongo ping: %v", apperr.ErrTransientIO, err)
	}
	return client, nil
}

type MongoStore struct {
	users    *mongo.Collection
	messages *mongo.Collection
	channels *mongo.Collection

	// tsMu serializes timestamp assignment so history order matches
	// insert order within this process.
	tsMu   sync.Mutex
	lastTS time.Time
}

func NewMongoStore(users, messages, channels *mongo.Collection) *MongoStore {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: 1}},
		Options: options.Index().SetName("timestamp_idx"),
	}
	_, _ = messages.Indexes().CreateOne(context.Background(), idx)
	return &MongoStore{users: users, messages: messages, channels: channels}
}

func (s *MongoStore) nextTimestamp() time.Time {
	s.tsMu.Lock()
	defer s.tsMu.Unlock()
	now := time.Now().UTC()
	if !now.After(s.lastTS) {
		now = s.lastTS.Add(time.Microsecond)
	}
	s.lastTS = now
	return now
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if _, err := s.users.InsertOne(ctx, cp); err != nil {
		return nil, fmt.Errorf("%w: insert user: %v", apperr.ErrTransientIO, err)
	}
	return &cp, nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: find user: %v", apperr.ErrTransientIO, err)
	}
	return &u, nil
}

func (s *MongoStore) UpdateProfile(ctx context.Context, u *models.User) (*models.User, error) {
	update := bson.M{"$set": bson.M{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"image":      u.Image,
		"color":      u.Color,
	}}
	res, err := s.users.UpdateByID(ctx, u.ID, update)
	if err != nil {
		return nil, fmt.Errorf("%w: update profile: %v", apperr.ErrTransientIO, err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, u.ID)
	}
	return s.GetUser(ctx, u.ID)
}

func (s *MongoStore) SearchUsers(ctx context.Context, selfID, term string) ([]*models.User, error) {
	rx := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
	filter := bson.M{
		"_id": bson.M{"$ne": selfID},
		"$or": bson.A{
			bson.M{"first_name": rx},
			bson.M{"last_name": rx},
			bson.M{"email": rx},
		},
	}
	return s.findUsers(ctx, filter)
}

func (s *MongoStore) AllUsers(ctx context.Context, selfID string) ([]*models.User, error) {
	return s.findUsers(ctx, bson.M{"_id": bson.M{"$ne": selfID}})
}

func (s *MongoStore) findUsers(ctx context.Context, filter bson.M) ([]*models.User, error) {
	cur, err := s.users.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: find users: %v", apperr.ErrTransientIO, err)
	}
	defer cur.Close(ctx)
	var out []*models.User
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, fmt.Errorf("%w: decode user: %v", apperr.ErrTransientIO, err)
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

func (s *MongoStore) CreateDirectMessage(ctx context.Context, d MessageDraft) (*models.Message, error) {
	if err := validateDraft(d); err != nil {
		return nil, err
	}
	if d.RecipientID == "" {
		return nil, fmt.Errorf("%w: recipient is required", apperr.ErrValidation)
	}
	if _, err := s.GetUser(ctx, d.SenderID); err != nil {
		return nil, err
	}
	if _, err := s.GetUser(ctx, d.RecipientID); err != nil {
		return nil, err
	}
	m := &models.Message{
		ID:          uuid.NewString(),
		SenderID:    d.SenderID,
		RecipientID: d.RecipientID,
		MessageType: d.MessageType,
		Content:     d.Content,
		FilePath:    d.FilePath,
		Timestamp:   s.nextTimestamp(),
	}
	if _, err := s.messages.InsertOne(ctx, m); err != nil {
		return nil, fmt.Errorf("%w: insert message: %v", apperr.ErrTransientIO, err)
	}
	return m, nil
}

func (s *MongoStore) CreateChannelMessage(ctx context.Context, d MessageDraft) (*models.Message, error) {
	if err := validateDraft(d); err != nil {
		return nil, err
	}
	if d.ChannelID == "" {
		return nil, fmt.Errorf("%w: channel is required", apperr.ErrValidation)
	}
	ch, err := s.GetChannel(ctx, d.ChannelID)
	if err != nil {
		return nil, err
	}
	if !ch.HasMember(d.SenderID) {
		return nil, fmt.Errorf("%w: %s is not a member of channel %s", apperr.ErrNotAuthorized, d.SenderID, d.ChannelID)
	}
	m := &models.Message{
		ID:          uuid.NewString(),
		SenderID:    d.SenderID,
		ChannelID:   d.ChannelID,
		MessageType: d.MessageType,
		Content:     d.Content,
		FilePath:    d.FilePath,
		Timestamp:   s.nextTimestamp(),
	}
	if _, err := s.messages.InsertOne(ctx, m); err != nil {
		return nil, fmt.Errorf("%w: insert message: %v", apperr.ErrTransientIO, err)
	}
	_, _ = s.channels.UpdateByID(ctx, d.ChannelID, bson.M{"$set": bson.M{"updated_at": m.Timestamp}})
	return m, nil
}

func (s *MongoStore) MessagesBetween(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": userA, "recipient_id": userB},
		bson.M{"sender_id": userB, "recipient_id": userA},
	}}
	return s.findMessages(ctx, filter)
}

func (s *MongoStore) MessagesIn(ctx context.Context, channelID string) ([]*models.Message, error) {
	if _, err := s.GetChannel(ctx, channelID); err != nil {
		return nil, err
	}
	return s.findMessages(ctx, bson.M{"channel_id": channelID})
}

func (s *MongoStore) findMessages(ctx context.Context, filter bson.M) ([]*models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find messages: %v", apperr.ErrTransientIO, err)
	}
	defer cur.Close(ctx)
	var out []*models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("%w: decode message: %v", apperr.ErrTransientIO, err)
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

// DirectContacts groups this user's direct messages by counterpart and joins
// the counterpart's profile, most recently active first.
func (s *MongoStore) DirectContacts(ctx context.Context, userID string) ([]*models.Contact, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"channel_id": bson.M{"$exists": false},
			"$or":        bson.A{bson.M{"sender_id": userID}, bson.M{"recipient_id": userID}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$cond": bson.M{
				"if":   bson.M{"$eq": bson.A{"$sender_id", userID}},
				"then": "$recipient_id",
				"else": "$sender_id",
			}},
			"last_message_time": bson.M{"$first": "$timestamp"},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         s.users.Name(),
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "contact_info",
		}}},
		{{Key: "$unwind", Value: "$contact_info"}},
		{{Key: "$project", Value: bson.M{
			"_id":               1,
			"last_message_time": 1,
			"email":             "$contact_info.email",
			"first_name":        "$contact_info.first_name",
			"last_name":         "$contact_info.last_name",
			"image":             "$contact_info.image",
			"color":             "$contact_info.color",
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "last_message_time", Value: -1}}}},
	}
	cur, err := s.messages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: contacts aggregation: %v", apperr.ErrTransientIO, err)
	}
	defer cur.Close(ctx)
	var out []*models.Contact
	for cur.Next(ctx) {
		var c models.Contact
		if err := cur.Decode(&c); err != nil {
			return nil, fmt.Errorf("%w: decode contact: %v", apperr.ErrTransientIO, err)
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}

func (s *MongoStore) CreateChannel(ctx context.Context, name, adminID string, members []string) (*models.Channel, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: channel name is required", apperr.ErrValidation)
	}
	if _, err := s.GetUser(ctx, adminID); err != nil {
		return nil, err
	}
	uniq := make([]string, 0, len(members))
	seen := map[string]bool{adminID: true}
	for _, m := range members {
		if _, err := s.GetUser(ctx, m); err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			uniq = append(uniq, m)
		}
	}
	now := time.Now().UTC()
	ch := &models.Channel{
		ID:        uuid.NewString(),
		Name:      name,
		AdminID:   adminID,
		Members:   uniq,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.channels.InsertOne(ctx, ch); err != nil {
		return nil, fmt.Errorf("%w: insert channel: %v", apperr.ErrTransientIO, err)
	}
	return ch, nil
}

func (s *MongoStore) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	var ch models.Channel
	if err := s.channels.FindOne(ctx, bson.M{"_id": id}).Decode(&ch); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: channel %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: find channel: %v", apperr.ErrTransientIO, err)
	}
	return &ch, nil
}

func (s *MongoStore) ChannelsForUser(ctx context.Context, userID string) ([]*models.Channel, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"members": userID},
		bson.M{"admin_id": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.channels.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find channels: %v", apperr.ErrTransientIO, err)
	}
	defer cur.Close(ctx)
	var out []*models.Channel
	for cur.Next(ctx) {
		var ch models.Channel
		if err := cur.Decode(&ch); err != nil {
			return nil, fmt.Errorf("%w: decode channel: %v", apperr.ErrTransientIO, err)
		}
		out = append(out, &ch)
	}
	return out, cur.Err()
}

var _ Gateway = (*MongoStore)(nil)
