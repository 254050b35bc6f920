package dbmysql

import "gorm.io/gorm"

// Store bundles the repositories. It satisfies common.MessageStore,
// common.FriendshipStore, common.AtomicAcceptor and common.UserDirectory.
type Store struct {
	*MessageRepository
	*FriendshipRepository
	*UserRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		MessageRepository:    NewMessageRepository(db),
		FriendshipRepository: NewFriendshipRepository(db),
		UserRepository:       NewUserRepository(db),
	}
}
