package common

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage_FromRecord(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := Message{ID: 7, SenderID: "u1", RecipientID: "u2", Content: "hi", CreatedAt: created}

	decoded, err := DecodeMessage(MessageRecord(msg))
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestDecodeMessage_NumericForms(t *testing.T) {
	base := map[string]any{
		"sender_id":    "u1",
		"recipient_id": "u2",
		"content":      "hi",
		"created_at":   "2024-03-01T12:00:00Z",
	}

	ids := []any{int64(5), 5, int32(5), float64(5), json.Number("5"), "5"}
	for _, id := range ids {
		rec := map[string]any{}
		for k, v := range base {
			rec[k] = v
		}
		rec["id"] = id

		msg, err := DecodeMessage(rec)
		require.NoError(t, err, "id type %T", id)
		assert.Equal(t, int64(5), msg.ID)
	}
}

func TestDecodeMessage_Rejects(t *testing.T) {
	tests := []struct {
		name string
		rec  map[string]any
	}{
		{"missing id", map[string]any{"sender_id": "u1", "recipient_id": "u2", "created_at": "2024-03-01T12:00:00Z"}},
		{"fractional id", map[string]any{"id": 1.5, "sender_id": "u1", "recipient_id": "u2", "created_at": "2024-03-01T12:00:00Z"}},
		{"zero id", map[string]any{"id": int64(0), "sender_id": "u1", "recipient_id": "u2", "created_at": "2024-03-01T12:00:00Z"}},
		{"sender wrong type", map[string]any{"id": int64(1), "sender_id": 3, "recipient_id": "u2", "created_at": "2024-03-01T12:00:00Z"}},
		{"blank recipient", map[string]any{"id": int64(1), "sender_id": "u1", "recipient_id": " ", "created_at": "2024-03-01T12:00:00Z"}},
		{"bad timestamp", map[string]any{"id": int64(1), "sender_id": "u1", "recipient_id": "u2", "created_at": "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessage(tt.rec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord))
		})
	}
}

func TestDecodeEdge(t *testing.T) {
	edge := FriendshipEdge{
		ID:        "e1",
		UserID:    "u1",
		FriendID:  "u2",
		Status:    StatusPending,
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	decoded, err := DecodeEdge(EdgeRecord(edge))
	require.NoError(t, err)
	assert.Equal(t, edge, decoded)

	rec := EdgeRecord(edge)
	rec["status"] = "blocked"
	_, err = DecodeEdge(rec)
	assert.ErrorIs(t, err, ErrMalformedRecord)

	rec = EdgeRecord(edge)
	rec["friend_id"] = "u1"
	_, err = DecodeEdge(rec)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestTopicFilter_Matches(t *testing.T) {
	ev := ChangeEvent{
		Table:     TableFriendships,
		Operation: OpUpdate,
		Record:    map[string]any{"user_id": "u1", "friend_id": "u2"},
	}

	tests := []struct {
		name   string
		filter TopicFilter
		want   bool
	}{
		{"table only", TopicFilter{Table: TableFriendships}, true},
		{"other table", TopicFilter{Table: TableMessages}, false},
		{"operation listed", TopicFilter{Table: TableFriendships, Operations: []Operation{OpInsert, OpUpdate}}, true},
		{"operation not listed", TopicFilter{Table: TableFriendships, Operations: []Operation{OpInsert}}, false},
		{"column match", TopicFilter{Table: TableFriendships, Column: "friend_id", Value: "u2"}, true},
		{"column mismatch", TopicFilter{Table: TableFriendships, Column: "friend_id", Value: "u1"}, false},
		{"missing column", TopicFilter{Table: TableFriendships, Column: "sender_id", Value: "u1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(ev))
		})
	}
}

func TestMessageBetween(t *testing.T) {
	m := Message{SenderID: "u1", RecipientID: "u2"}
	assert.True(t, m.Between("u1", "u2"))
	assert.True(t, m.Between("u2", "u1"))
	assert.False(t, m.Between("u1", "u3"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("Alice@Example.com "))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("bademail"))
	assert.Equal(t, "alice@example.com", NormalizeEmail(" Alice@Example.com"))
}
