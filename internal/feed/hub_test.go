package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/common"
)

type collector struct {
	mu     sync.Mutex
	events []common.ChangeEvent
}

func (c *collector) handle(ev common.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) snapshot() []common.ChangeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]common.ChangeEvent(nil), c.events...)
}

func (c *collector) count() int {
	return len(c.snapshot())
}

func messageEvent(id int64, sender, recipient string) common.ChangeEvent {
	return common.ChangeEvent{
		Table:     common.TableMessages,
		Operation: common.OpInsert,
		Record: common.MessageRecord(common.Message{
			ID: id, SenderID: sender, RecipientID: recipient, Content: "hi",
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}),
	}
}

func TestHub_FiltersByColumn(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zerolog.Nop())
	defer hub.Close()

	var toU2, all collector
	_, err := hub.Subscribe(ctx, common.TopicFilter{
		Table: common.TableMessages, Operations: []common.Operation{common.OpInsert},
		Column: "recipient_id", Value: "u2",
	}, toU2.handle)
	require.NoError(t, err)
	_, err = hub.Subscribe(ctx, common.TopicFilter{Table: common.TableMessages}, all.handle)
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, messageEvent(1, "u1", "u2")))
	require.NoError(t, hub.Publish(ctx, messageEvent(2, "u1", "u3")))
	require.NoError(t, hub.Publish(ctx, common.ChangeEvent{Table: common.TableFriendships, Operation: common.OpInsert}))

	require.Eventually(t, func() bool { return all.count() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return toU2.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "u2", toU2.snapshot()[0].Record["recipient_id"])
}

func TestHub_PreservesOrderPerSubscriber(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zerolog.Nop())
	defer hub.Close()

	var c collector
	_, err := hub.Subscribe(ctx, common.TopicFilter{Table: common.TableMessages}, c.handle)
	require.NoError(t, err)

	for i := int64(1); i <= 50; i++ {
		require.NoError(t, hub.Publish(ctx, messageEvent(i, "u1", "u2")))
	}

	require.Eventually(t, func() bool { return c.count() == 50 }, time.Second, 5*time.Millisecond)
	for i, ev := range c.snapshot() {
		assert.Equal(t, int64(i+1), ev.Record["id"])
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zerolog.Nop())
	defer hub.Close()

	var c collector
	id, err := hub.Subscribe(ctx, common.TopicFilter{Table: common.TableMessages}, c.handle)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers())

	require.NoError(t, hub.Unsubscribe(id))
	assert.Equal(t, 0, hub.Subscribers())
	assert.ErrorIs(t, hub.Unsubscribe(id), common.ErrUnknownSubscription)

	require.NoError(t, hub.Publish(ctx, messageEvent(1, "u1", "u2")))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, c.count())
}

func TestHub_HandlerMayReenter(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zerolog.Nop())
	defer hub.Close()

	var second collector
	var once sync.Once
	_, err := hub.Subscribe(ctx, common.TopicFilter{Table: common.TableMessages}, func(ev common.ChangeEvent) {
		once.Do(func() {
			_, _ = hub.Subscribe(ctx, common.TopicFilter{Table: common.TableFriendships}, second.handle)
			_ = hub.Publish(ctx, common.ChangeEvent{Table: common.TableFriendships, Operation: common.OpUpdate})
		})
	})
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, messageEvent(1, "u1", "u2")))
	require.Eventually(t, func() bool { return second.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHub_Closed(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zerolog.Nop())
	hub.Close()
	hub.Close()

	_, err := hub.Subscribe(ctx, common.TopicFilter{Table: common.TableMessages}, func(common.ChangeEvent) {})
	assert.ErrorIs(t, err, ErrHubClosed)
	assert.ErrorIs(t, hub.Publish(ctx, messageEvent(1, "u1", "u2")), ErrHubClosed)
}

func TestHub_PublishCopiesRecord(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zerolog.Nop())
	defer hub.Close()

	var c collector
	_, err := hub.Subscribe(ctx, common.TopicFilter{Table: common.TableMessages}, c.handle)
	require.NoError(t, err)

	ev := messageEvent(1, "u1", "u2")
	require.NoError(t, hub.Publish(ctx, ev))
	ev.Record["content"] = "mutated"

	require.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "hi", c.snapshot()[0].Record["content"])
	assert.False(t, c.snapshot()[0].CommitTime.IsZero())
}
