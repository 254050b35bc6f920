package dbmongo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatsync/internal/common"
	"chatsync/internal/logging"
)

// ChangeFeed serves subscriptions from collection change streams, one
// stream per subscription. Delete events carry the old row only when the
// collection has pre-images enabled.
type ChangeFeed struct {
	db  *mongo.Database
	log zerolog.Logger

	mu   sync.Mutex
	subs map[common.SubscriptionID]context.CancelFunc
}

func NewChangeFeed(mc *MongoClient, log zerolog.Logger) *ChangeFeed {
	return &ChangeFeed{
		db:   mc.Database,
		log:  logging.Component(log, "mongo_feed"),
		subs: make(map[common.SubscriptionID]context.CancelFunc),
	}
}

// changeDoc is the subset of a change stream event the feed reads.
type changeDoc struct {
	OperationType            string              `bson:"operationType"`
	DocumentKey              bson.RawValue       `bson:"documentKey"`
	FullDocument             bson.RawValue       `bson:"fullDocument"`
	FullDocumentBeforeChange bson.RawValue       `bson:"fullDocumentBeforeChange"`
	ClusterTime              primitive.Timestamp `bson:"clusterTime"`
	WallTime                 time.Time           `bson:"wallTime"`
}

func (f *ChangeFeed) Subscribe(ctx context.Context, filter common.TopicFilter, handler common.Handler) (common.SubscriptionID, error) {
	coll, err := f.collection(filter.Table)
	if err != nil {
		return "", err
	}
	if handler == nil {
		return "", fmt.Errorf("subscribe %s: nil handler", filter.Table)
	}

	opts := options.ChangeStream().
		SetFullDocument(options.UpdateLookup).
		SetFullDocumentBeforeChange(options.WhenAvailable)
	cs, err := coll.Watch(ctx, pipelineFor(filter), opts)
	if err != nil {
		return "", fmt.Errorf("watch %s: %w", filter.Table, err)
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	id := common.SubscriptionID(uuid.NewString())
	f.mu.Lock()
	f.subs[id] = cancel
	f.mu.Unlock()

	go f.pump(streamCtx, id, filter.Table, cs, handler)
	return id, nil
}

func (f *ChangeFeed) pump(ctx context.Context, id common.SubscriptionID, table common.Table, cs *mongo.ChangeStream, handler common.Handler) {
	log := f.log.With().Str("subscription_id", string(id)).Str("table", string(table)).Logger()
	defer cs.Close(context.Background())

	for cs.Next(ctx) {
		var doc changeDoc
		if err := cs.Decode(&doc); err != nil {
			log.Warn().Err(err).Msg("Dropping undecodable change")
			continue
		}
		ev, ok, err := toChangeEvent(table, doc)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping malformed change")
			continue
		}
		if ok {
			handler(ev)
		}
	}
	if err := cs.Err(); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("Change stream ended")
	}

	f.mu.Lock()
	delete(f.subs, id)
	f.mu.Unlock()
}

func (f *ChangeFeed) Unsubscribe(id common.SubscriptionID) error {
	f.mu.Lock()
	cancel, ok := f.subs[id]
	delete(f.subs, id)
	f.mu.Unlock()

	if !ok {
		return fmt.Errorf("subscription %s: %w", id, common.ErrUnknownSubscription)
	}
	cancel()
	return nil
}

func (f *ChangeFeed) Close() {
	f.mu.Lock()
	subs := f.subs
	f.subs = make(map[common.SubscriptionID]context.CancelFunc)
	f.mu.Unlock()

	for _, cancel := range subs {
		cancel()
	}
}

func (f *ChangeFeed) collection(table common.Table) (*mongo.Collection, error) {
	switch table {
	case common.TableMessages:
		return f.db.Collection(messagesCollection), nil
	case common.TableFriendships:
		return f.db.Collection(friendshipsCollection), nil
	default:
		return nil, fmt.Errorf("unknown table %q", table)
	}
}

var operationTypes = map[common.Operation][]string{
	common.OpInsert: {"insert"},
	common.OpUpdate: {"update", "replace"},
	common.OpDelete: {"delete"},
}

func pipelineFor(filter common.TopicFilter) mongo.Pipeline {
	ops := filter.Operations
	if len(ops) == 0 {
		ops = []common.Operation{common.OpInsert, common.OpUpdate, common.OpDelete}
	}
	var types bson.A
	for _, op := range ops {
		for _, t := range operationTypes[op] {
			types = append(types, t)
		}
	}

	match := bson.D{{Key: "operationType", Value: bson.M{"$in": types}}}
	if filter.Column != "" {
		field := fieldName(filter.Column)
		match = append(match, bson.E{Key: "$or", Value: bson.A{
			bson.M{"fullDocument." + field: filter.Value},
			bson.M{"fullDocumentBeforeChange." + field: filter.Value},
		}})
	}
	return mongo.Pipeline{{{Key: "$match", Value: match}}}
}

// toChangeEvent converts a change document. ok is false for operation types
// the feed does not surface, such as drop or invalidate.
func toChangeEvent(table common.Table, doc changeDoc) (common.ChangeEvent, bool, error) {
	ev := common.ChangeEvent{Table: table, CommitTime: doc.WallTime.UTC()}
	if doc.WallTime.IsZero() {
		ev.CommitTime = time.Unix(int64(doc.ClusterTime.T), 0).UTC()
	}

	row := doc.FullDocument
	switch doc.OperationType {
	case "insert":
		ev.Operation = common.OpInsert
	case "update", "replace":
		ev.Operation = common.OpUpdate
	case "delete":
		ev.Operation = common.OpDelete
		row = doc.FullDocumentBeforeChange
	default:
		return ev, false, nil
	}

	if row.Type != bson.TypeEmbeddedDocument {
		if ev.Operation != common.OpDelete {
			return ev, false, fmt.Errorf("%s %s without a document", table, doc.OperationType)
		}
		// without a pre-image only the key is known
		var key struct {
			ID any `bson:"_id"`
		}
		if err := doc.DocumentKey.Unmarshal(&key); err != nil {
			return ev, false, fmt.Errorf("decode document key: %w", err)
		}
		ev.Record = map[string]any{"id": key.ID}
		return ev, true, nil
	}

	switch table {
	case common.TableMessages:
		var m messageDoc
		if err := row.Unmarshal(&m); err != nil {
			return ev, false, fmt.Errorf("decode message: %w", err)
		}
		ev.Record = common.MessageRecord(m.toCommon())
	case common.TableFriendships:
		var e edgeDoc
		if err := row.Unmarshal(&e); err != nil {
			return ev, false, fmt.Errorf("decode edge: %w", err)
		}
		ev.Record = common.EdgeRecord(e.toCommon())
	default:
		return ev, false, fmt.Errorf("unknown table %q", table)
	}
	return ev, true, nil
}
