package common

import (
	"time"
)

// Identity is the authenticated local user.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// User is a directory record.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Message is immutable once created. ID is assigned by the store.
type Message struct {
	ID          int64     `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// Between reports whether the message belongs to the unordered pair {a, b}.
func (m Message) Between(a, b string) bool {
	return (m.SenderID == a && m.RecipientID == b) ||
		(m.SenderID == b && m.RecipientID == a)
}

type FriendshipStatus string

const (
	StatusPending  FriendshipStatus = "pending"
	StatusAccepted FriendshipStatus = "accepted"
)

func (s FriendshipStatus) IsValid() bool {
	return s == StatusPending || s == StatusAccepted
}

// FriendshipEdge is a directed relation from UserID to FriendID.
type FriendshipEdge struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	FriendID  string           `json:"friend_id"`
	Status    FriendshipStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// Reverses reports whether other points the opposite way over the same pair.
func (e FriendshipEdge) Reverses(other FriendshipEdge) bool {
	return e.UserID == other.FriendID && e.FriendID == other.UserID
}

// Table names the record set a change event belongs to.
type Table string

const (
	TableMessages    Table = "messages"
	TableFriendships Table = "friendships"
)

type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// ChangeEvent is one row change delivered by a change stream. Record is the
// row as a loosely typed map; decode it with DecodeMessage or DecodeEdge.
type ChangeEvent struct {
	Table      Table
	Operation  Operation
	Record     map[string]any
	CommitTime time.Time
}

// TopicFilter selects the events a subscription receives. An empty
// Operations list matches every operation; an empty Column matches every row.
type TopicFilter struct {
	Table      Table
	Operations []Operation
	Column     string
	Value      string
}

// Matches applies the filter to an event.
func (f TopicFilter) Matches(ev ChangeEvent) bool {
	if f.Table != ev.Table {
		return false
	}
	if len(f.Operations) > 0 {
		found := false
		for _, op := range f.Operations {
			if op == ev.Operation {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Column == "" {
		return true
	}
	v, ok := ev.Record[f.Column]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s == f.Value
}

// SubscriptionID is the handle returned by ChangeStream.Subscribe.
type SubscriptionID string

// Handler receives change events. Handlers run on the stream's goroutine.
type Handler func(ChangeEvent)
