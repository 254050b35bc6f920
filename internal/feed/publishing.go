package feed

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"chatsync/internal/common"
	"chatsync/internal/logging"
)

// PublishingMessages wraps a MessageStore and announces every insert on a
// Publisher. Stores without a native change feed (MySQL, memory) are wired
// through it.
type PublishingMessages struct {
	common.MessageStore
	pub common.Publisher
	log zerolog.Logger
}

func NewPublishingMessages(store common.MessageStore, pub common.Publisher, log zerolog.Logger) *PublishingMessages {
	return &PublishingMessages{
		MessageStore: store,
		pub:          pub,
		log:          logging.Component(log, "message_publisher"),
	}
}

func (p *PublishingMessages) InsertMessage(ctx context.Context, msg *common.Message) error {
	if err := p.MessageStore.InsertMessage(ctx, msg); err != nil {
		return err
	}
	announce(ctx, p.pub, p.log, common.ChangeEvent{
		Table:     common.TableMessages,
		Operation: common.OpInsert,
		Record:    common.MessageRecord(*msg),
	})
	return nil
}

// PublishingFriendships wraps a FriendshipStore and announces every edge
// mutation. Delete publishes the row as it was before removal.
type PublishingFriendships struct {
	common.FriendshipStore
	pub common.Publisher
	log zerolog.Logger
}

type publishingAtomicFriendships struct {
	*PublishingFriendships
	acceptor common.AtomicAcceptor
}

// NewPublishingFriendships keeps the AtomicAcceptor capability of store when
// it has one.
func NewPublishingFriendships(store common.FriendshipStore, pub common.Publisher, log zerolog.Logger) common.FriendshipStore {
	p := &PublishingFriendships{
		FriendshipStore: store,
		pub:             pub,
		log:             logging.Component(log, "friendship_publisher"),
	}
	if acceptor, ok := store.(common.AtomicAcceptor); ok {
		return &publishingAtomicFriendships{PublishingFriendships: p, acceptor: acceptor}
	}
	return p
}

func (p *PublishingFriendships) InsertEdge(ctx context.Context, edge *common.FriendshipEdge) error {
	if err := p.FriendshipStore.InsertEdge(ctx, edge); err != nil {
		return err
	}
	p.publishEdge(ctx, common.OpInsert, *edge)
	return nil
}

func (p *PublishingFriendships) UpdateEdgeStatus(ctx context.Context, id string, status common.FriendshipStatus) error {
	if err := p.FriendshipStore.UpdateEdgeStatus(ctx, id, status); err != nil {
		return err
	}
	edge, err := p.FriendshipStore.EdgeByID(ctx, id)
	if err != nil {
		p.log.Warn().Err(err).Str("edge_id", id).Msg("Updated edge not readable, change not published")
		return nil
	}
	p.publishEdge(ctx, common.OpUpdate, *edge)
	return nil
}

func (p *PublishingFriendships) DeleteEdge(ctx context.Context, id string) error {
	before, lookupErr := p.FriendshipStore.EdgeByID(ctx, id)
	if lookupErr != nil && !errors.Is(lookupErr, common.ErrNotFound) {
		p.log.Warn().Err(lookupErr).Str("edge_id", id).Msg("Edge lookup before delete failed")
	}
	if err := p.FriendshipStore.DeleteEdge(ctx, id); err != nil {
		return err
	}
	if before != nil {
		p.publishEdge(ctx, common.OpDelete, *before)
	}
	return nil
}

func (p *publishingAtomicFriendships) AcceptEdge(ctx context.Context, id string) (common.FriendshipEdge, common.FriendshipEdge, error) {
	accepted, reverse, err := p.acceptor.AcceptEdge(ctx, id)
	if err != nil {
		return accepted, reverse, err
	}
	p.publishEdge(ctx, common.OpUpdate, accepted)
	p.publishEdge(ctx, common.OpInsert, reverse)
	return accepted, reverse, nil
}

func (p *PublishingFriendships) publishEdge(ctx context.Context, op common.Operation, edge common.FriendshipEdge) {
	announce(ctx, p.pub, p.log, common.ChangeEvent{
		Table:     common.TableFriendships,
		Operation: op,
		Record:    common.EdgeRecord(edge),
	})
}

// announce logs publish failures instead of returning them: the row is
// already committed and subscribers recover on their next refresh.
func announce(ctx context.Context, pub common.Publisher, log zerolog.Logger, ev common.ChangeEvent) {
	ev.CommitTime = time.Now().UTC()
	if err := pub.Publish(ctx, ev); err != nil {
		log.Error().Err(err).
			Str("table", string(ev.Table)).
			Str("operation", string(ev.Operation)).
			Msg("Failed to publish change")
	}
}
