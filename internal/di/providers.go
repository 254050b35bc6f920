package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"chatsync/internal/chat"
	"chatsync/internal/common"
	"chatsync/internal/config"
	"chatsync/internal/dbmongo"
	"chatsync/internal/dbmysql"
	"chatsync/internal/directory"
	"chatsync/internal/feed"
	"chatsync/internal/feed/grpcfeed"
	"chatsync/internal/friends"
	"chatsync/internal/health"
	"chatsync/internal/logging"
	"chatsync/internal/memstore"
	"chatsync/internal/notif"
	"chatsync/internal/session"
)

const (
	BackendMySQL  = "mysql"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// FeedService is the change feed process: a hub served over gRPC plus the
// HTTP status routes.
type FeedService struct {
	Config *config.Config
	Log    zerolog.Logger
	Hub    *feed.Hub
	GRPC   *grpc.Server
	Health *http.Server
}

// Client bundles the three sync engines around one signed-in session.
type Client struct {
	Config        *config.Config
	Log           zerolog.Logger
	Session       *session.Manager
	Directory     *directory.Cache
	Chat          *chat.Engine
	Friends       *friends.Engine
	Dispatcher    *notif.Dispatcher
	Notifications *notif.Manager
}

// Close releases the engines in reverse start order.
func (c *Client) Close() {
	if err := c.Dispatcher.Close(); err != nil {
		c.Log.Warn().Err(err).Msg("Failed to close dispatcher")
	}
	if err := c.Friends.Close(); err != nil {
		c.Log.Warn().Err(err).Msg("Failed to close friends engine")
	}
	if err := c.Chat.Close(); err != nil {
		c.Log.Warn().Err(err).Msg("Failed to close conversation engine")
	}
}

// Backend is the raw persistent store chosen by config, before change
// announcements are layered on.
type Backend struct {
	Kind        string
	Messages    common.MessageStore
	Friendships common.FriendshipStore
	Users       common.UserDirectory
	Mongo       *dbmongo.MongoClient
}

// Feed is the change stream matching the backend. Publisher is nil when the
// backend emits changes itself.
type Feed struct {
	Stream    common.ChangeStream
	Publisher common.Publisher
}

func ProvideConfig() *config.Config {
	return config.LoadConfig()
}

func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Logging)
}

func ProvideHub(log zerolog.Logger) (*feed.Hub, func()) {
	hub := feed.NewHub(log)
	return hub, hub.Close
}

func ProvideTokens(cfg *config.Config) *session.Tokens {
	return session.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
}

func ProvideFeedServer(hub *feed.Hub, log zerolog.Logger) *grpcfeed.Server {
	return grpcfeed.NewServer(hub, log)
}

func ProvideGRPCServer(tokens *session.Tokens, srv *grpcfeed.Server, log zerolog.Logger) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(loggingUnaryInterceptor(log), grpcfeed.UnaryAuthInterceptor(tokens)),
		grpc.ChainStreamInterceptor(loggingStreamInterceptor(log), grpcfeed.StreamAuthInterceptor(tokens)),
	)
	grpcfeed.RegisterChangeFeedServer(s, srv)
	return s
}

func ProvideHealthServer(cfg *config.Config, hub *feed.Hub, log zerolog.Logger) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Server.HealthPort,
		Handler:           health.NewHTTPServer(hub, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ProvideBackend opens the store named by STORE_BACKEND.
func ProvideBackend(cfg *config.Config, log zerolog.Logger) (*Backend, func(), error) {
	switch cfg.Store.Backend {
	case BackendMySQL:
		db, err := dbmysql.NewMySQL(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		store := dbmysql.NewStore(db)
		cleanup := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return &Backend{Kind: BackendMySQL, Messages: store, Friendships: store, Users: store}, cleanup, nil

	case BackendMongo:
		mc, err := dbmongo.NewMongoConnection(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		store := dbmongo.NewStore(mc)
		cleanup := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mc.Close(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to disconnect from MongoDB")
			}
		}
		return &Backend{Kind: BackendMongo, Messages: store, Friendships: store, Users: store, Mongo: mc}, cleanup, nil

	case BackendMemory:
		store := memstore.New()
		return &Backend{Kind: BackendMemory, Messages: store, Friendships: store, Users: store}, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func ProvideUserDirectory(b *Backend) common.UserDirectory {
	return b.Users
}

func ProvideSessionManager(users common.UserDirectory, cfg *config.Config, log zerolog.Logger) *session.Manager {
	return session.NewManager(users, cfg.Auth, log)
}

// ProvideFeed pairs the backend with its change stream. MySQL has no
// change stream of its own, so writes are relayed through the feed service.
func ProvideFeed(cfg *config.Config, b *Backend, sess *session.Manager, log zerolog.Logger) (*Feed, func(), error) {
	switch b.Kind {
	case BackendMongo:
		cf := dbmongo.NewChangeFeed(b.Mongo, log)
		return &Feed{Stream: cf}, cf.Close, nil

	case BackendMemory:
		hub := feed.NewHub(log)
		return &Feed{Stream: hub, Publisher: hub}, hub.Close, nil
	}

	conn, err := grpc.NewClient(cfg.Feed.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial change feed %s: %w", cfg.Feed.Address, err)
	}
	client := grpcfeed.NewClient(conn, sess, log)
	cleanup := func() {
		client.Close()
		conn.Close()
	}
	return &Feed{Stream: client, Publisher: client}, cleanup, nil
}

func ProvideMessageStore(b *Backend, f *Feed, log zerolog.Logger) common.MessageStore {
	if f.Publisher == nil {
		return b.Messages
	}
	return feed.NewPublishingMessages(b.Messages, f.Publisher, log)
}

func ProvideFriendshipStore(b *Backend, f *Feed, log zerolog.Logger) common.FriendshipStore {
	if f.Publisher == nil {
		return b.Friendships
	}
	return feed.NewPublishingFriendships(b.Friendships, f.Publisher, log)
}

func ProvideDirectoryCache(users common.UserDirectory) *directory.Cache {
	return directory.NewCache(users)
}

func ProvideChatEngine(sess *session.Manager, store common.MessageStore, f *Feed, cfg *config.Config, log zerolog.Logger) *chat.Engine {
	return chat.NewEngine(sess, store, f.Stream, chat.OptionsFromConfig(cfg.Sync), log)
}

func ProvideFriendsEngine(sess *session.Manager, store common.FriendshipStore, users common.UserDirectory, f *Feed, cache *directory.Cache, cfg *config.Config, log zerolog.Logger) *friends.Engine {
	return friends.NewEngine(sess, store, users, f.Stream, cache, friends.OptionsFromConfig(cfg.Sync), log)
}

// ProvideNotificationManager registers the log sink and, when Firebase is
// configured, the FCM sink.
func ProvideNotificationManager(cfg *config.Config, log zerolog.Logger) (*notif.Manager, func(), error) {
	m := notif.NewManager(cfg.Notification.Workers, cfg.Notification.ChannelBufferSize, log)
	m.Register(notif.NewLogSink(log))

	client, err := notif.NewMessagingClient(context.Background(), cfg.Firebase, log)
	if err != nil {
		m.Shutdown()
		return nil, nil, err
	}
	if client != nil {
		m.Register(notif.NewFCMSink(client, cfg.Firebase.DeviceToken, log))
	}
	return m, m.Shutdown, nil
}

func ProvidePermissionGate(cfg *config.Config) common.PermissionGate {
	return notif.NewStaticGate(cfg.Notification.Enabled)
}

func ProvideDispatcher(sess *session.Manager, f *Feed, cache *directory.Cache, m *notif.Manager, gate common.PermissionGate, cfg *config.Config, log zerolog.Logger) *notif.Dispatcher {
	return notif.NewDispatcher(sess, f.Stream, cache, m, gate, notif.OptionsFromConfig(cfg.Notification), log)
}
