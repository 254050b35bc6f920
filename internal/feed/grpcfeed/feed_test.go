package grpcfeed

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"chatsync/internal/common"
	"chatsync/internal/feed"
)

const bufSize = 1024 * 1024

type staticVerifier map[string]common.Identity

func (v staticVerifier) Validate(token string) (common.Identity, error) {
	id, ok := v[token]
	if !ok {
		return common.Identity{}, errors.New("unknown token")
	}
	return id, nil
}

type staticToken string

func (t staticToken) Token() string { return string(t) }

type received struct {
	mu     sync.Mutex
	events []common.ChangeEvent
}

func (r *received) handle(ev common.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *received) snapshot() []common.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]common.ChangeEvent(nil), r.events...)
}

func setupFeedTest(t *testing.T) (*feed.Hub, *grpc.ClientConn, func()) {
	lis := bufconn.Listen(bufSize)
	hub := feed.NewHub(zerolog.Nop())

	verifier := staticVerifier{
		"token-u1": {ID: "u1", Email: "u1@x.io"},
		"token-u2": {ID: "u2", Email: "u2@x.io"},
	}
	s := grpc.NewServer(
		grpc.UnaryInterceptor(UnaryAuthInterceptor(verifier)),
		grpc.StreamInterceptor(StreamAuthInterceptor(verifier)),
	)
	RegisterChangeFeedServer(s, NewServer(hub, zerolog.Nop()))

	go func() {
		_ = s.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	cleanup := func() {
		conn.Close()
		s.Stop()
		hub.Close()
	}
	return hub, conn, cleanup
}

func sampleMessage(id int64, sender, recipient string) common.ChangeEvent {
	return common.ChangeEvent{
		Table:     common.TableMessages,
		Operation: common.OpInsert,
		Record: common.MessageRecord(common.Message{
			ID: id, SenderID: sender, RecipientID: recipient, Content: "hello",
			CreatedAt: time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
		}),
	}
}

func TestFeed_SubscribeAndPublishRoundTrip(t *testing.T) {
	_, conn, cleanup := setupFeedTest(t)
	defer cleanup()
	ctx := context.Background()

	receiver := NewClient(conn, staticToken("token-u2"), zerolog.Nop())
	defer receiver.Close()
	sender := NewClient(conn, staticToken("token-u1"), zerolog.Nop())
	defer sender.Close()

	var got received
	_, err := receiver.Subscribe(ctx, common.TopicFilter{
		Table:      common.TableMessages,
		Operations: []common.Operation{common.OpInsert},
		Column:     "recipient_id",
		Value:      "u2",
	}, got.handle)
	require.NoError(t, err)

	require.NoError(t, sender.Publish(ctx, sampleMessage(42, "u1", "u2")))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	msg, err := common.DecodeMessage(got.snapshot()[0].Record)
	require.NoError(t, err)
	assert.Equal(t, int64(42), msg.ID)
	assert.Equal(t, "u1", msg.SenderID)
	assert.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), msg.CreatedAt)
}

func TestFeed_UnsubscribeReleasesServerSide(t *testing.T) {
	hub, conn, cleanup := setupFeedTest(t)
	defer cleanup()
	ctx := context.Background()

	client := NewClient(conn, staticToken("token-u1"), zerolog.Nop())
	id, err := client.Subscribe(ctx, common.TopicFilter{Table: common.TableFriendships}, func(common.ChangeEvent) {})
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers())

	require.NoError(t, client.Unsubscribe(id))
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, client.Unsubscribe(id), common.ErrUnknownSubscription)
}

func TestFeed_RequiresToken(t *testing.T) {
	_, conn, cleanup := setupFeedTest(t)
	defer cleanup()
	ctx := context.Background()

	anonymous := NewClient(conn, nil, zerolog.Nop())
	_, err := anonymous.Subscribe(ctx, common.TopicFilter{Table: common.TableMessages}, func(common.ChangeEvent) {})
	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, status.Code(errors.Unwrap(err)))

	err = anonymous.Publish(ctx, sampleMessage(1, "u1", "u2"))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	forged := NewClient(conn, staticToken("forged"), zerolog.Nop())
	err = forged.Publish(ctx, sampleMessage(1, "u1", "u2"))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestFeed_PublishValidation(t *testing.T) {
	_, conn, cleanup := setupFeedTest(t)
	defer cleanup()
	ctx := context.Background()
	client := NewClient(conn, staticToken("token-u1"), zerolog.Nop())

	foreign := sampleMessage(1, "u2", "u1")
	assert.Equal(t, codes.PermissionDenied, status.Code(client.Publish(ctx, foreign)))

	malformed := sampleMessage(1, "u1", "u2")
	delete(malformed.Record, "sender_id")
	assert.Equal(t, codes.InvalidArgument, status.Code(client.Publish(ctx, malformed)))

	_, err := client.Subscribe(ctx, common.TopicFilter{Table: "posts"}, func(common.ChangeEvent) {})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(errors.Unwrap(err)))
}

func TestCodec_FilterRoundTrip(t *testing.T) {
	in := common.TopicFilter{
		Table:      common.TableFriendships,
		Operations: []common.Operation{common.OpInsert, common.OpDelete},
		Column:     "friend_id",
		Value:      "u9",
	}
	s, err := encodeFilter(in)
	require.NoError(t, err)
	out, err := decodeFilter(s)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
