package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatsync/internal/common"
)

// Store implements the message, friendship and user contracts over one
// database. AcceptEdge needs a replica set for its transaction.
type Store struct {
	client      *mongo.Client
	messages    *mongo.Collection
	friendships *mongo.Collection
	users       *mongo.Collection
	counters    *mongo.Collection
	now         func() time.Time
}

func NewStore(mc *MongoClient) *Store {
	return &Store{
		client:      mc.Client,
		messages:    mc.Database.Collection(messagesCollection),
		friendships: mc.Database.Collection(friendshipsCollection),
		users:       mc.Database.Collection(usersCollection),
		counters:    mc.Database.Collection(countersCollection),
		now:         time.Now,
	}
}

func (s *Store) Conversation(ctx context.Context, selfID, peerID string, limit int) ([]common.Message, error) {
	opts := options.Find().
		SetSort(bsonD("created_at", -1, "_id", -1)).
		SetLimit(int64(limit))

	cur, err := s.messages.Find(ctx, conversationFilter(selfID, peerID), opts)
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}

	out := make([]common.Message, len(docs))
	for i, d := range docs {
		out[len(docs)-1-i] = d.toCommon()
	}
	return out, nil
}

func conversationFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "recipient_id": b},
		bson.M{"sender_id": b, "recipient_id": a},
	}}
}

func (s *Store) InsertMessage(ctx context.Context, msg *common.Message) error {
	id, err := s.nextSequence(ctx, messagesCollection)
	if err != nil {
		return err
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	doc := messageDoc{
		ID:          id,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Content:     msg.Content,
		CreatedAt:   msg.CreatedAt.UTC().Truncate(time.Millisecond),
	}
	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message: %w", translate(err))
	}
	msg.ID = id
	msg.CreatedAt = doc.CreatedAt
	return nil
}

// nextSequence hands out monotonically increasing ids per counter name.
func (s *Store) nextSequence(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return counter.Seq, nil
}

func (s *Store) EdgeByID(ctx context.Context, id string) (*common.FriendshipEdge, error) {
	var doc edgeDoc
	if err := s.friendships.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("edge %s: %w", id, translate(err))
	}
	edge := doc.toCommon()
	return &edge, nil
}

func (s *Store) IncomingPending(ctx context.Context, userID string) ([]common.FriendshipEdge, error) {
	return s.findEdges(ctx, bson.M{"friend_id": userID, "status": string(common.StatusPending)}, -1)
}

func (s *Store) AcceptedFrom(ctx context.Context, userID string) ([]common.FriendshipEdge, error) {
	return s.findEdges(ctx, bson.M{"user_id": userID, "status": string(common.StatusAccepted)}, 1)
}

func (s *Store) Between(ctx context.Context, a, b string) ([]common.FriendshipEdge, error) {
	return s.findEdges(ctx, bson.M{"$or": bson.A{
		bson.M{"user_id": a, "friend_id": b},
		bson.M{"user_id": b, "friend_id": a},
	}}, 1)
}

func (s *Store) Touching(ctx context.Context, userID string) ([]common.FriendshipEdge, error) {
	return s.findEdges(ctx, bson.M{"$or": bson.A{
		bson.M{"user_id": userID},
		bson.M{"friend_id": userID},
	}}, 1)
}

func (s *Store) findEdges(ctx context.Context, filter bson.M, order int) ([]common.FriendshipEdge, error) {
	cur, err := s.friendships.Find(ctx, filter, options.Find().SetSort(bsonD("created_at", order)))
	if err != nil {
		return nil, fmt.Errorf("query friendships: %w", err)
	}
	var docs []edgeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode friendships: %w", err)
	}
	out := make([]common.FriendshipEdge, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCommon())
	}
	return out, nil
}

func (s *Store) InsertEdge(ctx context.Context, edge *common.FriendshipEdge) error {
	if edge.UserID == edge.FriendID {
		return common.ErrSelfEdge
	}
	if !edge.Status.IsValid() {
		return fmt.Errorf("invalid status %q", edge.Status)
	}
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	}

	doc := edgeDoc{
		ID:        edge.ID,
		UserID:    edge.UserID,
		FriendID:  edge.FriendID,
		Status:    string(edge.Status),
		CreatedAt: edge.CreatedAt,
	}
	if _, err := s.friendships.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert edge: %w", translate(err))
	}
	return nil
}

func (s *Store) UpdateEdgeStatus(ctx context.Context, id string, status common.FriendshipStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status %q", status)
	}
	res, err := s.friendships.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		return fmt.Errorf("update edge %s: %w", id, translate(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("edge %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteEdge(ctx context.Context, id string) error {
	res, err := s.friendships.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete edge %s: %w", id, translate(err))
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("edge %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// AcceptEdge flips the edge and upserts its accepted reverse in one
// multi-document transaction.
func (s *Store) AcceptEdge(ctx context.Context, id string) (common.FriendshipEdge, common.FriendshipEdge, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return common.FriendshipEdge{}, common.FriendshipEdge{}, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	var accepted, reverse edgeDoc
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		err := s.friendships.FindOneAndUpdate(sc,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"status": string(common.StatusAccepted)}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&accepted)
		if err != nil {
			return nil, err
		}

		err = s.friendships.FindOneAndUpdate(sc,
			bson.M{"user_id": accepted.FriendID, "friend_id": accepted.UserID},
			bson.M{
				"$set": bson.M{"status": string(common.StatusAccepted)},
				"$setOnInsert": bson.M{
					"_id":        uuid.NewString(),
					"created_at": s.now().UTC().Truncate(time.Millisecond),
				},
			},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		).Decode(&reverse)
		return nil, err
	})
	if err != nil {
		return common.FriendshipEdge{}, common.FriendshipEdge{}, fmt.Errorf("accept edge %s: %w", id, translate(err))
	}
	return accepted.toCommon(), reverse.toCommon(), nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*common.User, error) {
	return s.findUser(ctx, bson.M{"_id": id}, id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*common.User, error) {
	return s.findUser(ctx, bson.M{"email": common.NormalizeEmail(email)}, email)
}

func (s *Store) findUser(ctx context.Context, filter bson.M, key string) (*common.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, fmt.Errorf("user %s: %w", key, translate(err))
	}
	u := doc.toCommon()
	return &u, nil
}

func (s *Store) UsersByIDs(ctx context.Context, ids []string) ([]common.User, error) {
	if len(ids) == 0 {
		return []common.User{}, nil
	}
	return s.findUsers(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) ListUsers(ctx context.Context, excludeID string) ([]common.User, error) {
	return s.findUsers(ctx, bson.M{"_id": bson.M{"$ne": excludeID}})
}

func (s *Store) findUsers(ctx context.Context, filter bson.M) ([]common.User, error) {
	cur, err := s.users.Find(ctx, filter, options.Find().SetSort(bsonD("email", 1)))
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]common.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCommon())
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, user *common.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = common.NormalizeEmail(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	}
	doc := userDoc{ID: user.ID, Email: user.Email, PasswordHash: user.PasswordHash, CreatedAt: user.CreatedAt}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return common.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", common.ErrDuplicate, err)
	default:
		return err
	}
}
