// Package dbmongo stores messages, friendship edges and users in MongoDB and
// exposes the collections' change streams as a common.ChangeStream.
package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatsync/internal/config"
)

const (
	messagesCollection    = "messages"
	friendshipsCollection = "friendships"
	usersCollection       = "users"
	countersCollection    = "counters"

	namespaceExistsCode = 48
)

// preImageCollections keep pre-images so column-filtered delete events can
// be matched and decoded.
var preImageCollections = []string{friendshipsCollection, messagesCollection}

type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoConnection(c *config.Config, log zerolog.Logger) (*MongoClient, error) {
	uri := c.GetMongoURI()
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	database := client.Database(c.MongoDB.Database)
	if err := ensureIndexes(ctx, database); err != nil {
		return nil, err
	}
	if err := enablePreImages(ctx, database); err != nil {
		return nil, err
	}

	log.Info().Str("host", c.MongoDB.Host).Str("database", c.MongoDB.Database).Msg("Connected to MongoDB")
	return &MongoClient{
		Client:   client,
		Database: database,
	}, nil
}

func (mc *MongoClient) Close(ctx context.Context) error {
	return mc.Client.Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		messagesCollection: {
			{Keys: bsonD("sender_id", 1, "recipient_id", 1, "created_at", -1)},
			{Keys: bsonD("recipient_id", 1, "created_at", -1)},
		},
		friendshipsCollection: {
			{Keys: bsonD("user_id", 1, "friend_id", 1), Options: options.Index().SetUnique(true)},
			{Keys: bsonD("friend_id", 1, "status", 1)},
		},
		usersCollection: {
			{Keys: bsonD("email", 1), Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}

func enablePreImages(ctx context.Context, db *mongo.Database) error {
	for _, name := range preImageCollections {
		if err := db.CreateCollection(ctx, name); err != nil {
			var cmdErr mongo.CommandError
			if !errors.As(err, &cmdErr) || cmdErr.Code != namespaceExistsCode {
				return fmt.Errorf("failed to create %s: %w", name, err)
			}
		}
		if err := db.RunCommand(ctx, preImageCommand(name)).Err(); err != nil {
			return fmt.Errorf("failed to enable pre-images on %s: %w", name, err)
		}
	}
	return nil
}

func preImageCommand(collection string) bson.D {
	return bson.D{
		{Key: "collMod", Value: collection},
		{Key: "changeStreamPreAndPostImages", Value: bson.D{{Key: "enabled", Value: true}}},
	}
}
