//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"chatsync/internal/config"
)

var feedServiceSet = wire.NewSet(
	ProvideLogger,
	ProvideHub,
	ProvideTokens,
	ProvideFeedServer,
	ProvideGRPCServer,
	ProvideHealthServer,
	wire.Struct(new(FeedService), "*"),
)

var clientSet = wire.NewSet(
	ProvideLogger,
	ProvideBackend,
	ProvideUserDirectory,
	ProvideSessionManager,
	ProvideFeed,
	ProvideMessageStore,
	ProvideFriendshipStore,
	ProvideDirectoryCache,
	ProvideChatEngine,
	ProvideFriendsEngine,
	ProvideNotificationManager,
	ProvidePermissionGate,
	ProvideDispatcher,
	wire.Struct(new(Client), "*"),
)

func InitializeFeedService(cfg *config.Config) (*FeedService, func(), error) {
	wire.Build(feedServiceSet)
	return nil, nil, nil
}

func InitializeClient(cfg *config.Config) (*Client, func(), error) {
	wire.Build(clientSet)
	return nil, nil, nil
}
