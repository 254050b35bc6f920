package common

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Rows crossing the store/feed boundary are plain maps. Only strings, int64
// and float64 are produced so the same record survives JSON, structpb and
// in-process delivery.

func MessageRecord(m Message) map[string]any {
	return map[string]any{
		"id":           m.ID,
		"sender_id":    m.SenderID,
		"recipient_id": m.RecipientID,
		"content":      m.Content,
		"created_at":   m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func EdgeRecord(e FriendshipEdge) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"user_id":    e.UserID,
		"friend_id":  e.FriendID,
		"status":     string(e.Status),
		"created_at": e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// DecodeMessage validates a raw row and converts it to a Message.
func DecodeMessage(rec map[string]any) (Message, error) {
	var m Message
	id, err := intField(rec, "id")
	if err != nil {
		return m, err
	}
	if id <= 0 {
		return m, fmt.Errorf("%w: id must be positive, got %d", ErrMalformedRecord, id)
	}
	m.ID = id
	if m.SenderID, err = stringField(rec, "sender_id", true); err != nil {
		return m, err
	}
	if m.RecipientID, err = stringField(rec, "recipient_id", true); err != nil {
		return m, err
	}
	if m.Content, err = stringField(rec, "content", false); err != nil {
		return m, err
	}
	if m.CreatedAt, err = timeField(rec, "created_at"); err != nil {
		return m, err
	}
	return m, nil
}

// DecodeEdge validates a raw row and converts it to a FriendshipEdge.
func DecodeEdge(rec map[string]any) (FriendshipEdge, error) {
	var e FriendshipEdge
	var err error
	if e.ID, err = stringField(rec, "id", true); err != nil {
		return e, err
	}
	if e.UserID, err = stringField(rec, "user_id", true); err != nil {
		return e, err
	}
	if e.FriendID, err = stringField(rec, "friend_id", true); err != nil {
		return e, err
	}
	if e.UserID == e.FriendID {
		return e, fmt.Errorf("%w: %v", ErrMalformedRecord, ErrSelfEdge)
	}
	status, err := stringField(rec, "status", true)
	if err != nil {
		return e, err
	}
	e.Status = FriendshipStatus(status)
	if !e.Status.IsValid() {
		return e, fmt.Errorf("%w: unknown status %q", ErrMalformedRecord, status)
	}
	if e.CreatedAt, err = timeField(rec, "created_at"); err != nil {
		return e, err
	}
	return e, nil
}

func stringField(rec map[string]any, key string, required bool) (string, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("%w: missing %s", ErrMalformedRecord, key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrMalformedRecord, key, v)
	}
	if required && strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: empty %s", ErrMalformedRecord, key)
	}
	return s, nil
}

func intField(rec map[string]any, key string) (int64, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedRecord, key)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %s is not an integer", ErrMalformedRecord, key)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, key, err)
		}
		return i, nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s is %T, want integer", ErrMalformedRecord, key, v)
	}
}

func timeField(rec map[string]any, key string) (time.Time, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return time.Time{}, fmt.Errorf("%w: missing %s", ErrMalformedRecord, key)
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, key, err)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s is %T, want timestamp", ErrMalformedRecord, key, v)
	}
}
