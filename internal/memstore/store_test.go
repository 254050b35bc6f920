package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/common"
)

func TestConversation_OnlyThePair(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	msgs := []common.Message{
		{SenderID: "u1", RecipientID: "u2", Content: "a", CreatedAt: base},
		{SenderID: "u2", RecipientID: "u1", Content: "b", CreatedAt: base.Add(time.Minute)},
		{SenderID: "u1", RecipientID: "u3", Content: "not ours", CreatedAt: base.Add(2 * time.Minute)},
		{SenderID: "u3", RecipientID: "u2", Content: "not ours either", CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range msgs {
		require.NoError(t, s.InsertMessage(ctx, &msgs[i]))
	}

	got, err := s.Conversation(ctx, "u1", "u2", 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Content)
	assert.Equal(t, "b", got[1].Content)

	reversed, err := s.Conversation(ctx, "u2", "u1", 100)
	require.NoError(t, err)
	assert.Equal(t, got, reversed)
}

func TestConversation_MostRecentWindow(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		m := common.Message{SenderID: "u1", RecipientID: "u2", Content: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, s.InsertMessage(ctx, &m))
		assert.Equal(t, int64(i+1), m.ID)
	}

	got, err := s.Conversation(ctx, "u1", "u2", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].Content)
	assert.Equal(t, "e", got[1].Content)
}

func TestInsertEdge_Constraints(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.InsertEdge(ctx, &common.FriendshipEdge{UserID: "u1", FriendID: "u1", Status: common.StatusPending})
	assert.ErrorIs(t, err, common.ErrSelfEdge)

	first := &common.FriendshipEdge{UserID: "u1", FriendID: "u2", Status: common.StatusPending}
	require.NoError(t, s.InsertEdge(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	err = s.InsertEdge(ctx, &common.FriendshipEdge{UserID: "u1", FriendID: "u2", Status: common.StatusAccepted})
	assert.ErrorIs(t, err, common.ErrDuplicate)

	// the reverse direction is a different ordered pair
	require.NoError(t, s.InsertEdge(ctx, &common.FriendshipEdge{UserID: "u2", FriendID: "u1", Status: common.StatusAccepted}))

	between, err := s.Between(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Len(t, between, 2)
}

func TestEdgeLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	edge := &common.FriendshipEdge{UserID: "u1", FriendID: "u2", Status: common.StatusPending}
	require.NoError(t, s.InsertEdge(ctx, edge))

	pending, err := s.IncomingPending(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, edge.ID, pending[0].ID)

	require.NoError(t, s.UpdateEdgeStatus(ctx, edge.ID, common.StatusAccepted))
	accepted, err := s.AcceptedFrom(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, accepted, 1)

	require.NoError(t, s.DeleteEdge(ctx, edge.ID))
	_, err = s.EdgeByID(ctx, edge.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.DeleteEdge(ctx, edge.ID), common.ErrNotFound)
	assert.ErrorIs(t, s.UpdateEdgeStatus(ctx, edge.ID, common.StatusAccepted), common.ErrNotFound)

	// the pair is free again
	require.NoError(t, s.InsertEdge(ctx, &common.FriendshipEdge{UserID: "u1", FriendID: "u2", Status: common.StatusPending}))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	alice := &common.User{Email: " Alice@X.io"}
	require.NoError(t, s.CreateUser(ctx, alice))
	assert.Equal(t, "alice@x.io", alice.Email)
	require.NoError(t, s.CreateUser(ctx, &common.User{Email: "bob@x.io"}))
	assert.ErrorIs(t, s.CreateUser(ctx, &common.User{Email: "ALICE@x.io"}), common.ErrDuplicate)

	found, err := s.UserByEmail(ctx, "alice@X.io")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	_, err = s.UserByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	others, err := s.ListUsers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, "bob@x.io", others[0].Email)

	batch, err := s.UsersByIDs(ctx, []string{alice.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}
