package dbmongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"chatsync/internal/common"
)

// Field names match the record columns so topic filters translate directly.
// Only "id" is renamed, to "_id".

type messageDoc struct {
	ID          int64     `bson:"_id"`
	SenderID    string    `bson:"sender_id"`
	RecipientID string    `bson:"recipient_id"`
	Content     string    `bson:"content"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d messageDoc) toCommon() common.Message {
	return common.Message{
		ID:          d.ID,
		SenderID:    d.SenderID,
		RecipientID: d.RecipientID,
		Content:     d.Content,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type edgeDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	FriendID  string    `bson:"friend_id"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d edgeDoc) toCommon() common.FriendshipEdge {
	return common.FriendshipEdge{
		ID:        d.ID,
		UserID:    d.UserID,
		FriendID:  d.FriendID,
		Status:    common.FriendshipStatus(d.Status),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d userDoc) toCommon() common.User {
	return common.User{ID: d.ID, Email: d.Email, PasswordHash: d.PasswordHash, CreatedAt: d.CreatedAt.UTC()}
}

func fieldName(column string) string {
	if column == "id" {
		return "_id"
	}
	return column
}

// bsonD builds an ordered document from key, value pairs.
func bsonD(pairs ...any) bson.D {
	d := make(bson.D, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		d = append(d, bson.E{Key: pairs[i].(string), Value: pairs[i+1]})
	}
	return d
}
