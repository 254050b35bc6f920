package common

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

import (
	"context"
)

type SessionProvider interface {
	// Current returns the signed-in identity, or false while unauthenticated.
	Current() (Identity, bool)
}

type MessageStore interface {
	// Conversation returns the most recent limit messages exchanged between
	// selfID and peerID in either direction, oldest first.
	Conversation(ctx context.Context, selfID, peerID string, limit int) ([]Message, error)
	// InsertMessage stores msg and sets msg.ID.
	InsertMessage(ctx context.Context, msg *Message) error
}

type FriendshipStore interface {
	EdgeByID(ctx context.Context, id string) (*FriendshipEdge, error)
	// IncomingPending lists pending edges where friend_id = userID.
	IncomingPending(ctx context.Context, userID string) ([]FriendshipEdge, error)
	// AcceptedFrom lists accepted edges where user_id = userID.
	AcceptedFrom(ctx context.Context, userID string) ([]FriendshipEdge, error)
	// Between lists edges over the pair in both directions.
	Between(ctx context.Context, a, b string) ([]FriendshipEdge, error)
	// Touching lists every edge where userID is either endpoint.
	Touching(ctx context.Context, userID string) ([]FriendshipEdge, error)
	InsertEdge(ctx context.Context, edge *FriendshipEdge) error
	UpdateEdgeStatus(ctx context.Context, id string, status FriendshipStatus) error
	DeleteEdge(ctx context.Context, id string) error
}

// AtomicAcceptor is implemented by stores that can flip a pending edge and
// insert its reverse in one transaction.
type AtomicAcceptor interface {
	AcceptEdge(ctx context.Context, id string) (accepted, reverse FriendshipEdge, err error)
}

type UserDirectory interface {
	UserByID(ctx context.Context, id string) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	UsersByIDs(ctx context.Context, ids []string) ([]User, error)
	// ListUsers returns every user except excludeID.
	ListUsers(ctx context.Context, excludeID string) ([]User, error)
	CreateUser(ctx context.Context, user *User) error
}

type ChangeStream interface {
	Subscribe(ctx context.Context, filter TopicFilter, handler Handler) (SubscriptionID, error)
	Unsubscribe(id SubscriptionID) error
}

type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// NotificationSink is fire-and-forget.
type NotificationSink interface {
	Notify(title, body string)
}

type PermissionGate interface {
	IsGranted() bool
	Request() bool
}
