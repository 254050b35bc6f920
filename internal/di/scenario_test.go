package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/chat"
	"chatsync/internal/common"
	"chatsync/internal/config"
	"chatsync/internal/directory"
	"chatsync/internal/friends"
	"chatsync/internal/notif"
	"chatsync/internal/session"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{HealthPort: "0"},
		Store:  config.StoreConfig{Backend: BackendMemory},
		Sync: config.SyncConfig{
			BacklogLimit:         100,
			OptimisticEcho:       true,
			PlaceholderTolerance: 5 * time.Second,
			ReconcileEnabled:     true,
			ReconcileGrace:       30 * time.Second,
			ReconcilePolicy:      "complete",
		},
		Notification: config.NotificationConfig{Enabled: true, Workers: 1, ChannelBufferSize: 10, PreviewLength: 50},
		Auth:         config.AuthConfig{JWTSecret: "scenario-secret", TokenTTL: time.Hour},
		Logging:      config.LoggingConfig{Level: "error", Format: "json", OutputPath: "stderr"},
	}
}

type notification struct {
	title, body string
}

type recordingSink struct {
	mu   sync.Mutex
	seen []notification
}

func (r *recordingSink) Notify(title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, notification{title, body})
}

func (r *recordingSink) snapshot() []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification(nil), r.seen...)
}

type peer struct {
	session    *session.Manager
	chat       *chat.Engine
	friends    *friends.Engine
	dispatcher *notif.Dispatcher
	sink       *recordingSink
}

func (p *peer) close() {
	p.dispatcher.Close()
	p.friends.Close()
	p.chat.Close()
}

// newPeer builds one client over a shared backend and feed, the way two
// devices share one deployment.
func newPeer(cfg *config.Config, b *Backend, f *Feed) *peer {
	log := zerolog.Nop()
	users := ProvideUserDirectory(b)
	sess := ProvideSessionManager(users, cfg, log)
	cache := ProvideDirectoryCache(users)
	sink := &recordingSink{}
	return &peer{
		session:    sess,
		chat:       ProvideChatEngine(sess, ProvideMessageStore(b, f, log), f, cfg, log),
		friends:    ProvideFriendsEngine(sess, ProvideFriendshipStore(b, f, log), users, f, cache, cfg, log),
		dispatcher: notif.NewDispatcher(sess, f.Stream, cache, sink, notif.NewStaticGate(true), notif.OptionsFromConfig(cfg.Notification), log),
		sink:       sink,
	}
}

func TestScenario_BefriendAndChat(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()

	backend, closeBackend, err := ProvideBackend(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer closeBackend()
	f, closeFeed, err := ProvideFeed(cfg, backend, nil, zerolog.Nop())
	require.NoError(t, err)
	defer closeFeed()

	alice := newPeer(cfg, backend, f)
	defer alice.close()
	bob := newPeer(cfg, backend, f)
	defer bob.close()

	aliceID, err := alice.session.SignUp(ctx, "alice@example.com", "password1")
	require.NoError(t, err)
	bobID, err := bob.session.SignUp(ctx, "bob@example.com", "password2")
	require.NoError(t, err)

	require.NoError(t, alice.friends.Start(ctx))
	require.NoError(t, bob.friends.Start(ctx))
	require.NoError(t, bob.dispatcher.Start(ctx))

	// Friend request travels over the feed.
	res, err := alice.friends.SendRequest(ctx, "Bob@Example.com")
	require.NoError(t, err)
	require.True(t, res.Sent())

	require.Eventually(t, func() bool { return len(bob.friends.View().Requests) == 1 }, 2*time.Second, 10*time.Millisecond)
	req := bob.friends.View().Requests[0]
	assert.Equal(t, aliceID.ID, req.SenderID)
	assert.Equal(t, "alice@example.com", req.SenderEmail)

	again, err := alice.friends.SendRequest(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, friends.ReasonPending, again.Reason)

	require.NoError(t, bob.friends.AcceptRequest(ctx, req.ID))

	hasFriend := func(p *peer, id string) bool {
		for _, fr := range p.friends.View().Friends {
			if fr.ID == id {
				return true
			}
		}
		return false
	}
	require.Eventually(t, func() bool { return hasFriend(alice, bobID.ID) && hasFriend(bob, aliceID.ID) }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, bob.friends.View().Requests)

	// Conversation.
	require.NoError(t, alice.chat.SelectPeer(ctx, bobID.ID))
	require.NoError(t, bob.chat.SelectPeer(ctx, aliceID.ID))

	require.NoError(t, alice.chat.SendMessage(ctx, "hi bob"))

	require.Eventually(t, func() bool { return len(bob.chat.View().Messages) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		v := alice.chat.View()
		return len(v.Messages) == 1 && len(v.Pending) == 0
	}, 2*time.Second, 10*time.Millisecond)
	got := bob.chat.View().Messages[0]
	assert.Equal(t, "hi bob", got.Content)
	assert.Equal(t, aliceID.ID, got.SenderID)

	require.Eventually(t, func() bool { return len(bob.sink.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, notification{notif.Title("alice@example.com"), "hi bob"}, bob.sink.snapshot()[0])
	assert.Empty(t, alice.sink.snapshot())

	// A later selection reloads the backlog from the store.
	require.NoError(t, bob.chat.SelectPeer(ctx, ""))
	require.NoError(t, bob.chat.SelectPeer(ctx, aliceID.ID))
	assert.Len(t, bob.chat.View().Messages, 1)
	assert.False(t, bob.chat.View().Loading)
}

func TestScenario_RequestAcceptAndMessage(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	log := zerolog.Nop()

	backend, closeBackend, err := ProvideBackend(cfg, log)
	require.NoError(t, err)
	defer closeBackend()
	f, closeFeed, err := ProvideFeed(cfg, backend, nil, log)
	require.NoError(t, err)
	defer closeFeed()

	u1 := common.Identity{ID: "u1", Email: "u1@x"}
	u2 := common.Identity{ID: "u2", Email: "u2@x"}
	for _, id := range []common.Identity{u1, u2} {
		require.NoError(t, backend.Users.CreateUser(ctx, &common.User{ID: id.ID, Email: id.Email}))
	}

	type client struct {
		friends *friends.Engine
		chat    *chat.Engine
	}
	newClient := func(id common.Identity) client {
		sess := session.NewStatic(id)
		return client{
			friends: friends.NewEngine(sess, ProvideFriendshipStore(backend, f, log), backend.Users, f.Stream,
				directory.NewCache(backend.Users), friends.OptionsFromConfig(cfg.Sync), log),
			chat: chat.NewEngine(sess, ProvideMessageStore(backend, f, log), f.Stream, chat.OptionsFromConfig(cfg.Sync), log),
		}
	}
	c1, c2 := newClient(u1), newClient(u2)
	defer func() {
		for _, c := range []client{c1, c2} {
			c.friends.Close()
			c.chat.Close()
		}
	}()
	require.NoError(t, c1.friends.Start(ctx))
	require.NoError(t, c2.friends.Start(ctx))

	res, err := c1.friends.SendRequest(ctx, "u2@x")
	require.NoError(t, err)
	require.True(t, res.Sent(), "reason: %s", res.Reason)

	require.NoError(t, c2.friends.Refresh(ctx))
	requests := c2.friends.View().Requests
	require.Len(t, requests, 1)
	assert.Equal(t, "u1", requests[0].SenderID)
	require.NoError(t, c2.friends.AcceptRequest(ctx, requests[0].ID))

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]friends.Friend{{ID: "u2", Email: "u2@x"}}, c1.friends.View().Friends) &&
			assert.ObjectsAreEqual([]friends.Friend{{ID: "u1", Email: "u1@x"}}, c2.friends.View().Friends)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c1.chat.SelectPeer(ctx, "u2"))
	require.NoError(t, c1.chat.SendMessage(ctx, "hi"))

	backlog, err := backend.Messages.Conversation(ctx, "u2", "u1", 100)
	require.NoError(t, err)
	require.Len(t, backlog, 1)
	assert.Equal(t, "hi", backlog[0].Content)
	assert.Equal(t, "u1", backlog[0].SenderID)
	assert.Equal(t, "u2", backlog[0].RecipientID)

	require.NoError(t, c2.chat.SelectPeer(ctx, "u1"))
	assert.Len(t, c2.chat.View().Messages, 1)
}

func TestScenario_SignOutClearsEngines(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()

	backend, closeBackend, err := ProvideBackend(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer closeBackend()
	f, closeFeed, err := ProvideFeed(cfg, backend, nil, zerolog.Nop())
	require.NoError(t, err)
	defer closeFeed()

	p := newPeer(cfg, backend, f)
	defer p.close()

	_, err = p.session.SignUp(ctx, "carol@example.com", "password3")
	require.NoError(t, err)
	require.NoError(t, p.friends.Start(ctx))

	p.session.Logout()
	require.NoError(t, p.friends.Refresh(ctx))
	assert.Empty(t, p.friends.View().Friends)

	assert.ErrorIs(t, p.chat.SelectPeer(ctx, "someone"), common.ErrUnauthenticated)
	_, err = p.friends.SendRequest(ctx, "dave@example.com")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestInitializeClient_Memory(t *testing.T) {
	client, cleanup, err := InitializeClient(memoryConfig())
	require.NoError(t, err)
	defer cleanup()
	defer client.Close()

	assert.NotNil(t, client.Chat)
	assert.NotNil(t, client.Friends)
	assert.NotNil(t, client.Dispatcher)

	_, ok := client.Session.Current()
	assert.False(t, ok)
}

func TestInitializeClient_UnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Backend = "sqlite"

	_, _, err := InitializeClient(cfg)
	assert.ErrorContains(t, err, `unknown store backend "sqlite"`)
}

func TestInitializeFeedService(t *testing.T) {
	svc, cleanup, err := InitializeFeedService(memoryConfig())
	require.NoError(t, err)
	defer cleanup()
	defer svc.GRPC.Stop()

	rec := httptest.NewRecorder()
	svc.Health.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ":0", svc.Health.Addr)
}
