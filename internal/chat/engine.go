// Package chat keeps the local view of one two-party conversation in sync
// with the message store and its change feed.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatsync/internal/common"
	"chatsync/internal/config"
	"chatsync/internal/logging"
)

type Options struct {
	BacklogLimit         int
	OptimisticEcho       bool
	PlaceholderTolerance time.Duration
}

func OptionsFromConfig(cfg config.SyncConfig) Options {
	return Options{
		BacklogLimit:         cfg.BacklogLimit,
		OptimisticEcho:       cfg.OptimisticEcho,
		PlaceholderTolerance: cfg.PlaceholderTolerance,
	}
}

// Placeholder is a locally stamped copy of a message whose authoritative row
// has not arrived on the feed yet.
type Placeholder struct {
	LocalID     string
	SenderID    string
	RecipientID string
	Content     string
	CreatedAt   time.Time
	// StoredID is the id the store assigned, once the insert has returned.
	StoredID int64
}

// View is a snapshot of the engine state.
type View struct {
	Peer     string
	Messages []common.Message
	Pending  []Placeholder
	Loading  bool
}

// Engine tracks the active conversation. Each peer selection starts a new
// generation; a backlog fetch or feed event tagged with an older generation
// is dropped.
type Engine struct {
	session common.SessionProvider
	store   common.MessageStore
	stream  common.ChangeStream
	opts    Options
	log     zerolog.Logger
	now     func() time.Time

	mu         sync.Mutex
	self       string
	peer       string
	messages   []common.Message
	ids        map[int64]struct{}
	pending    []Placeholder
	loading    bool
	generation uint64
	subs       []common.SubscriptionID
	listener   func(View)
	closed     bool
}

func NewEngine(session common.SessionProvider, store common.MessageStore, stream common.ChangeStream, opts Options, log zerolog.Logger) *Engine {
	if opts.BacklogLimit <= 0 {
		opts.BacklogLimit = 100
	}
	return &Engine{
		session: session,
		store:   store,
		stream:  stream,
		opts:    opts,
		log:     logging.Component(log, "conversation"),
		now:     time.Now,
		ids:     make(map[int64]struct{}),
	}
}

// OnChange registers fn to receive a snapshot after every state change. fn
// may run on a feed goroutine.
func (e *Engine) OnChange(fn func(View)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = fn
}

// SelectPeer makes peerID the active conversation; an empty peerID clears
// it. The previous subscription is released before the new one is acquired.
// The backlog result is applied only if no later SelectPeer superseded it.
// It replaces the message list except for rows the feed delivered while the
// fetch was in flight; those are kept and deduplicated by id, so the list may
// hold live rows newer than the backlog window.
func (e *Engine) SelectPeer(ctx context.Context, peerID string) error {
	identity, ok := e.session.Current()
	if peerID != "" && !ok {
		e.reset()
		return common.ErrUnauthenticated
	}

	gen, err := e.activate(identity.ID, peerID)
	if err != nil {
		return err
	}
	if peerID == "" {
		return nil
	}

	subErr := e.subscribe(ctx, gen, identity.ID)
	fetchErr := e.fetchBacklog(ctx, gen, identity.ID, peerID)
	return errors.Join(subErr, fetchErr)
}

// activate switches state to the new peer and releases the old
// subscriptions. It returns the generation owning the new state.
func (e *Engine) activate(self, peer string) (uint64, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return 0, errors.New("conversation engine closed")
	}
	e.generation++
	gen := e.generation
	old := e.subs
	e.subs = nil
	e.self = self
	e.peer = peer
	e.messages = nil
	e.ids = make(map[int64]struct{})
	e.pending = nil
	e.loading = peer != ""
	e.mu.Unlock()

	e.release(old)
	e.notify()

	e.log.Debug().Str("peer_id", peer).Uint64("generation", gen).Msg("Selected peer")
	return gen, nil
}

// subscribe opens the two self-scoped insert topics. The merge rule narrows
// them to the active peer.
func (e *Engine) subscribe(ctx context.Context, gen uint64, self string) error {
	handler := func(ev common.ChangeEvent) { e.onEvent(gen, ev) }

	var acquired []common.SubscriptionID
	for _, column := range []string{"recipient_id", "sender_id"} {
		id, err := e.stream.Subscribe(ctx, common.TopicFilter{
			Table:      common.TableMessages,
			Operations: []common.Operation{common.OpInsert},
			Column:     column,
			Value:      self,
		}, handler)
		if err != nil {
			e.release(acquired)
			e.log.Error().Err(err).Msg("Failed to subscribe to messages")
			return fmt.Errorf("subscribe to messages: %w", err)
		}
		acquired = append(acquired, id)
	}

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		e.release(acquired)
		return nil
	}
	e.subs = acquired
	e.mu.Unlock()
	return nil
}

func (e *Engine) fetchBacklog(ctx context.Context, gen uint64, self, peer string) error {
	backlog, err := e.store.Conversation(ctx, self, peer, e.opts.BacklogLimit)

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		e.log.Debug().Str("peer_id", peer).Msg("Discarding stale backlog")
		return nil
	}
	e.loading = false
	if err != nil {
		e.mu.Unlock()
		e.notify()
		e.log.Error().Err(err).Str("peer_id", peer).Msg("Failed to fetch backlog")
		return fmt.Errorf("fetch backlog: %w", err)
	}

	// Rows pushed while the fetch was in flight survive the replacement.
	live := e.messages
	merged := Dedup(append(filterPair(backlog, self, peer), live...))
	e.messages = merged
	e.ids = make(map[int64]struct{}, len(merged))
	for _, m := range merged {
		e.ids[m.ID] = struct{}{}
		e.dropPlaceholderLocked(m)
	}
	e.mu.Unlock()

	e.notify()
	e.log.Debug().Str("peer_id", peer).Int("messages", len(merged)).Msg("Backlog loaded")
	return nil
}

// SendMessage inserts content addressed to the active peer. The stored row
// reaches the view through the feed; with the optimistic echo enabled a
// placeholder is shown meanwhile and retracted if the insert fails.
func (e *Engine) SendMessage(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return common.ErrEmptyContent
	}
	if _, ok := e.session.Current(); !ok {
		return common.ErrUnauthenticated
	}

	e.mu.Lock()
	self, peer, gen := e.self, e.peer, e.generation
	e.mu.Unlock()
	if peer == "" {
		return common.ErrNoPeer
	}

	msg := &common.Message{
		SenderID:    self,
		RecipientID: peer,
		Content:     content,
		CreatedAt:   e.now().UTC(),
	}

	var localID string
	if e.opts.OptimisticEcho {
		localID = uuid.NewString()
		e.mu.Lock()
		if e.generation == gen {
			e.pending = append(e.pending, Placeholder{
				LocalID:     localID,
				SenderID:    msg.SenderID,
				RecipientID: msg.RecipientID,
				Content:     msg.Content,
				CreatedAt:   msg.CreatedAt,
			})
		}
		e.mu.Unlock()
		e.notify()
	}

	err := e.store.InsertMessage(ctx, msg)

	if localID != "" {
		e.mu.Lock()
		switch {
		case err != nil:
			e.removePlaceholderLocked(localID)
		default:
			if _, arrived := e.ids[msg.ID]; arrived {
				e.removePlaceholderLocked(localID)
			} else {
				for i := range e.pending {
					if e.pending[i].LocalID == localID {
						e.pending[i].StoredID = msg.ID
					}
				}
			}
		}
		e.mu.Unlock()
		e.notify()
	}

	if err != nil {
		e.log.Error().Err(err).Str("peer_id", peer).Msg("Failed to send message")
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (e *Engine) onEvent(gen uint64, ev common.ChangeEvent) {
	if ev.Operation != common.OpInsert {
		return
	}
	msg, err := common.DecodeMessage(ev.Record)
	if err != nil {
		e.log.Warn().Err(err).Msg("Dropping malformed message event")
		return
	}

	e.mu.Lock()
	if e.generation != gen || e.peer == "" || !msg.Between(e.self, e.peer) {
		e.mu.Unlock()
		return
	}
	if _, dup := e.ids[msg.ID]; dup {
		e.mu.Unlock()
		return
	}
	e.messages = append(e.messages, msg)
	e.ids[msg.ID] = struct{}{}
	e.dropPlaceholderLocked(msg)
	e.mu.Unlock()

	e.notify()
}

// dropPlaceholderLocked retires the placeholder msg stands for: the one
// holding its stored id, else the oldest unconfirmed one from self with the
// same content stamped within the tolerance.
func (e *Engine) dropPlaceholderLocked(msg common.Message) {
	for _, p := range e.pending {
		if p.StoredID != 0 && p.StoredID == msg.ID {
			e.removePlaceholderLocked(p.LocalID)
			return
		}
	}
	if msg.SenderID != e.self {
		return
	}
	for _, p := range e.pending {
		if p.StoredID == 0 && p.Content == msg.Content && within(p.CreatedAt, msg.CreatedAt, e.opts.PlaceholderTolerance) {
			e.removePlaceholderLocked(p.LocalID)
			return
		}
	}
}

func (e *Engine) removePlaceholderLocked(localID string) {
	for i, p := range e.pending {
		if p.LocalID == localID {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

func (e *Engine) viewLocked() View {
	return View{
		Peer:     e.peer,
		Messages: append([]common.Message(nil), e.messages...),
		Pending:  append([]Placeholder(nil), e.pending...),
		Loading:  e.loading,
	}
}

// Close releases the subscriptions. The engine cannot be reused.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.generation++
	subs := e.subs
	e.subs = nil
	e.peer = ""
	e.mu.Unlock()

	return e.release(subs)
}

func (e *Engine) reset() {
	e.mu.Lock()
	e.generation++
	old := e.subs
	e.subs = nil
	e.peer = ""
	e.messages = nil
	e.ids = make(map[int64]struct{})
	e.pending = nil
	e.loading = false
	e.mu.Unlock()

	e.release(old)
	e.notify()
}

func (e *Engine) release(subs []common.SubscriptionID) error {
	var errs []error
	for _, id := range subs {
		if err := e.stream.Unsubscribe(id); err != nil {
			e.log.Warn().Err(err).Str("subscription_id", string(id)).Msg("Failed to release subscription")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) notify() {
	e.mu.Lock()
	fn := e.listener
	var v View
	if fn != nil {
		v = e.viewLocked()
	}
	e.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

func within(a, b time.Time, tolerance time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
