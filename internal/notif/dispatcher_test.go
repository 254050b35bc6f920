package notif

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/common"
	"chatsync/internal/common/mocks"
	"chatsync/internal/directory"
	"chatsync/internal/feed"
	"chatsync/internal/memstore"
	"chatsync/internal/session"
)

var alice = common.Identity{ID: "u1", Email: "alice@x.io"}

func inbound(id int64, from, to, content string) common.Message {
	return common.Message{ID: id, SenderID: from, RecipientID: to, Content: content, CreatedAt: time.Now().UTC()}
}

type recordingSink struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func (r *recordingSink) Notify(title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, body)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.titles)
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short", "hi there", "hi there"},
		{"exactly fifty", strings.Repeat("a", 50), strings.Repeat("a", 50)},
		{"fifty one", strings.Repeat("a", 51), strings.Repeat("a", 50) + "..."},
		{"multibyte counts runes", strings.Repeat("é", 60), strings.Repeat("é", 50) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.content, 50))
		})
	}
}

func TestOnInboundMessage_NotifiesWithResolvedEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := mocks.NewMockUserDirectory(ctrl)
	sink := mocks.NewMockNotificationSink(ctrl)
	gate := mocks.NewMockPermissionGate(ctrl)
	stream := mocks.NewMockChangeStream(ctrl)

	gate.EXPECT().IsGranted().Return(true).Times(1)
	stream.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(common.SubscriptionID("s1"), nil)
	users.EXPECT().UserByID(gomock.Any(), "u2").Return(&common.User{ID: "u2", Email: "bob@x.io"}, nil).Times(1)
	sink.EXPECT().Notify("New message from bob@x.io", "hello").Times(2)

	d := NewDispatcher(session.NewStatic(alice), stream, directory.NewCache(users), sink, gate, Options{}, zerolog.Nop())
	require.NoError(t, d.Start(context.Background()))

	// second message hits the cache
	d.OnInboundMessage(context.Background(), inbound(1, "u2", "u1", "hello"))
	d.OnInboundMessage(context.Background(), inbound(2, "u2", "u1", "hello"))
}

func TestOnInboundMessage_Suppressed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := mocks.NewMockUserDirectory(ctrl)
	sink := mocks.NewMockNotificationSink(ctrl)
	stream := mocks.NewMockChangeStream(ctrl)
	stream.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(common.SubscriptionID("s1"), nil)
	users.EXPECT().UserByID(gomock.Any(), "ghost").Return(nil, common.ErrNotFound)
	sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)

	d := NewDispatcher(session.NewStatic(alice), stream, directory.NewCache(users), sink, NewStaticGate(true), Options{}, zerolog.Nop())
	require.NoError(t, d.Start(context.Background()))
	ctx := context.Background()

	d.OnInboundMessage(ctx, inbound(1, "u1", "u1", "note to self"))
	d.OnInboundMessage(ctx, inbound(2, "u2", "u3", "not for me"))
	d.OnInboundMessage(ctx, inbound(3, "ghost", "u1", "who am i"))
}

func TestOnInboundMessage_DisabledIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gate := mocks.NewMockPermissionGate(ctrl)
	stream := mocks.NewMockChangeStream(ctrl)
	sink := mocks.NewMockNotificationSink(ctrl)
	users := mocks.NewMockUserDirectory(ctrl)

	gate.EXPECT().IsGranted().Return(false)
	gate.EXPECT().Request().Return(false)
	stream.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(common.SubscriptionID("s1"), nil)
	sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)

	d := NewDispatcher(session.NewStatic(alice), stream, directory.NewCache(users), sink, gate, Options{}, zerolog.Nop())
	require.NoError(t, d.Start(context.Background()))
	assert.False(t, d.Enabled())

	d.OnInboundMessage(context.Background(), inbound(1, "u2", "u1", "hello"))
}

func TestDispatcher_StartRequiresSession(t *testing.T) {
	d := NewDispatcher(session.NewStatic(common.Identity{}), nil, nil, &recordingSink{}, NewStaticGate(true), Options{}, zerolog.Nop())
	assert.ErrorIs(t, d.Start(context.Background()), common.ErrUnauthenticated)
}

func TestDispatcher_FeedDrivenNotifications(t *testing.T) {
	ctx := context.Background()
	hub := feed.NewHub(zerolog.Nop())
	defer hub.Close()

	mem := memstore.New()
	require.NoError(t, mem.CreateUser(ctx, &common.User{ID: "u2", Email: "bob@x.io"}))
	store := feed.NewPublishingMessages(mem, hub, zerolog.Nop())

	sink := &recordingSink{}
	d := NewDispatcher(session.NewStatic(alice), hub, directory.NewCache(mem), sink, NewStaticGate(true), Options{PreviewLength: 5}, zerolog.Nop())
	require.NoError(t, d.Start(ctx))
	assert.Equal(t, 1, hub.Subscribers())

	require.NoError(t, store.InsertMessage(ctx, &common.Message{SenderID: "u2", RecipientID: "u1", Content: "good morning"}))
	require.NoError(t, store.InsertMessage(ctx, &common.Message{SenderID: "u1", RecipientID: "u2", Content: "outbound"}))

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	sink.mu.Lock()
	assert.Equal(t, []string{"New message from bob@x.io"}, sink.titles)
	assert.Equal(t, []string{"good ..."}, sink.bodies)
	sink.mu.Unlock()

	require.NoError(t, d.Close())
	assert.Equal(t, 0, hub.Subscribers())
}
