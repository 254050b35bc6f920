// Package friends derives the friend list and the incoming request inbox
// from the friendship edges touching the signed-in user.
package friends

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"chatsync/internal/common"
	"chatsync/internal/config"
	"chatsync/internal/directory"
	"chatsync/internal/logging"
)

type Options struct {
	ReconcileEnabled bool
	ReconcileGrace   time.Duration
	ReconcilePolicy  Policy
}

func OptionsFromConfig(cfg config.SyncConfig) Options {
	return Options{
		ReconcileEnabled: cfg.ReconcileEnabled,
		ReconcileGrace:   cfg.ReconcileGrace,
		ReconcilePolicy:  ParsePolicy(cfg.ReconcilePolicy),
	}
}

// Engine rebuilds both views from scratch on every mutation and on every
// friendship event touching self.
type Engine struct {
	session common.SessionProvider
	store   common.FriendshipStore
	users   common.UserDirectory
	stream  common.ChangeStream
	cache   *directory.Cache
	opts    Options
	log     zerolog.Logger

	reconciler *reconciler

	mu         sync.Mutex
	friends    []Friend
	requests   []Request
	loading    bool
	generation uint64
	subs       []common.SubscriptionID
	stop       context.CancelFunc
	listener   func(View)
}

func NewEngine(session common.SessionProvider, store common.FriendshipStore, users common.UserDirectory, stream common.ChangeStream, cache *directory.Cache, opts Options, log zerolog.Logger) *Engine {
	if cache == nil {
		cache = directory.NewCache(users)
	}
	log = logging.Component(log, "friendships")
	return &Engine{
		session:    session,
		store:      store,
		users:      users,
		stream:     stream,
		cache:      cache,
		opts:       opts,
		log:        log,
		reconciler: newReconciler(store, opts.ReconcilePolicy, opts.ReconcileGrace, log),
	}
}

func (e *Engine) OnChange(fn func(View)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = fn
}

// Start watches the edges where self is either endpoint and loads the
// initial views. Calling Start again replaces the subscriptions.
func (e *Engine) Start(ctx context.Context) error {
	identity, ok := e.session.Current()
	if !ok {
		return common.ErrUnauthenticated
	}

	runCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	e.mu.Lock()
	old, oldStop := e.subs, e.stop
	e.subs = nil
	e.stop = stop
	e.mu.Unlock()
	if oldStop != nil {
		oldStop()
	}
	e.release(old)

	handler := func(common.ChangeEvent) {
		if err := e.Refresh(runCtx); err != nil && runCtx.Err() == nil {
			e.log.Warn().Err(err).Msg("Refresh after friendship event failed")
		}
	}

	var acquired []common.SubscriptionID
	for _, column := range []string{"user_id", "friend_id"} {
		id, err := e.stream.Subscribe(ctx, common.TopicFilter{
			Table:  common.TableFriendships,
			Column: column,
			Value:  identity.ID,
		}, handler)
		if err != nil {
			e.release(acquired)
			e.log.Error().Err(err).Msg("Failed to subscribe to friendships")
			return fmt.Errorf("subscribe to friendships: %w", err)
		}
		acquired = append(acquired, id)
	}

	e.mu.Lock()
	e.subs = acquired
	e.mu.Unlock()

	return e.Refresh(ctx)
}

// Refresh reloads both views. A refresh overtaken by a later one drops its
// result. Without a session both views are cleared.
func (e *Engine) Refresh(ctx context.Context) error {
	identity, ok := e.session.Current()
	if !ok {
		e.mu.Lock()
		e.generation++
		e.friends, e.requests, e.loading = nil, nil, false
		e.mu.Unlock()
		e.notify()
		return nil
	}
	self := identity.ID

	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.loading = true
	e.mu.Unlock()
	e.notify()

	var pending, accepted, touching []common.FriendshipEdge
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pending, err = e.store.IncomingPending(gctx, self)
		return err
	})
	g.Go(func() (err error) {
		accepted, err = e.store.AcceptedFrom(gctx, self)
		return err
	})
	if e.opts.ReconcileEnabled {
		g.Go(func() (err error) {
			touching, err = e.store.Touching(gctx, self)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if e.finish(gen, nil, nil, false) {
			e.log.Error().Err(err).Msg("Failed to refresh friendships")
		}
		return fmt.Errorf("refresh friendships: %w", err)
	}

	ids := make([]string, 0, len(pending)+len(accepted))
	for _, edge := range pending {
		ids = append(ids, edge.UserID)
	}
	for _, edge := range accepted {
		ids = append(ids, edge.FriendID)
	}
	emails, err := e.cache.ResolveMany(ctx, ids)
	if err != nil {
		e.log.Warn().Err(err).Int("ids", len(ids)).Msg("Identity lookup failed")
	}

	friends := make([]Friend, 0, len(accepted))
	for _, edge := range accepted {
		friends = append(friends, Friend{ID: edge.FriendID, Email: emailOr(emails, edge.FriendID)})
	}
	requests := make([]Request, 0, len(pending))
	for _, edge := range pending {
		requests = append(requests, Request{
			ID:          edge.ID,
			SenderID:    edge.UserID,
			SenderEmail: emailOr(emails, edge.UserID),
			CreatedAt:   edge.CreatedAt,
		})
	}

	if !e.finish(gen, friends, requests, true) {
		e.log.Debug().Uint64("generation", gen).Msg("Discarding stale refresh")
		return nil
	}
	e.log.Debug().Int("friends", len(friends)).Int("requests", len(requests)).Msg("Friendships refreshed")

	if e.opts.ReconcileEnabled {
		e.reconciler.run(ctx, touching)
	}
	return nil
}

// finish applies a refresh result when gen is still current and reports
// whether it was.
func (e *Engine) finish(gen uint64, friends []Friend, requests []Request, replace bool) bool {
	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return false
	}
	e.loading = false
	if replace {
		e.friends, e.requests = friends, requests
	}
	e.mu.Unlock()
	e.notify()
	return true
}

func emailOr(emails map[string]string, id string) string {
	if email, ok := emails[id]; ok {
		return email
	}
	return UnknownEmail
}

// SendRequest asks the owner of email to become a friend. Rule violations
// come back as a RequestResult reason; only store failures are errors.
func (e *Engine) SendRequest(ctx context.Context, email string) (RequestResult, error) {
	identity, ok := e.session.Current()
	if !ok {
		return RequestResult{}, common.ErrUnauthenticated
	}
	// Format is checked at sign-up; here the directory decides.
	email = common.NormalizeEmail(email)
	if email == "" {
		return RequestResult{Reason: ReasonInvalidEmail}, nil
	}

	target, err := e.users.UserByEmail(ctx, email)
	if errors.Is(err, common.ErrNotFound) {
		return RequestResult{Reason: ReasonNoSuchUser}, nil
	}
	if err != nil {
		return RequestResult{}, fmt.Errorf("look up %s: %w", email, err)
	}
	if target.ID == identity.ID {
		return RequestResult{Reason: ReasonSelf}, nil
	}
	e.cache.Remember(target.ID, target.Email)

	existing, err := e.store.Between(ctx, identity.ID, target.ID)
	if err != nil {
		return RequestResult{}, fmt.Errorf("check existing edges: %w", err)
	}
	for _, edge := range existing {
		if edge.Status == common.StatusAccepted {
			return RequestResult{Reason: ReasonAlreadyFriends}, nil
		}
	}
	if len(existing) > 0 {
		return RequestResult{Reason: ReasonPending}, nil
	}

	edge := &common.FriendshipEdge{
		UserID:   identity.ID,
		FriendID: target.ID,
		Status:   common.StatusPending,
	}
	if err := e.store.InsertEdge(ctx, edge); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return RequestResult{Reason: ReasonPending}, nil
		}
		e.log.Error().Err(err).Str("friend_id", target.ID).Msg("Failed to send friend request")
		return RequestResult{}, fmt.Errorf("send friend request: %w", err)
	}

	e.log.Info().Str("edge_id", edge.ID).Str("friend_id", target.ID).Msg("Friend request sent")
	return RequestResult{}, e.Refresh(ctx)
}

// AcceptRequest accepts an incoming request. Stores implementing
// common.AtomicAcceptor do it in one transaction; otherwise the status update
// and the reverse insert run concurrently and a half-applied accept returns a
// *PartialAcceptError. The views are refreshed either way.
func (e *Engine) AcceptRequest(ctx context.Context, edgeID string) error {
	identity, ok := e.session.Current()
	if !ok {
		return common.ErrUnauthenticated
	}

	err := e.accept(ctx, identity.ID, edgeID)
	if err != nil {
		e.log.Error().Err(err).Str("edge_id", edgeID).Msg("Failed to accept friend request")
	} else {
		e.log.Info().Str("edge_id", edgeID).Msg("Friend request accepted")
	}
	return errors.Join(err, e.Refresh(ctx))
}

func (e *Engine) accept(ctx context.Context, self, edgeID string) error {
	edge, err := e.store.EdgeByID(ctx, edgeID)
	if err != nil {
		return fmt.Errorf("look up request: %w", err)
	}
	if edge.FriendID != self {
		return ErrNotAddressee
	}
	if edge.Status != common.StatusPending {
		return ErrNotPending
	}

	if atomic, ok := e.store.(common.AtomicAcceptor); ok {
		if _, _, err := atomic.AcceptEdge(ctx, edgeID); err != nil {
			return fmt.Errorf("accept request: %w", err)
		}
		return nil
	}

	// The writes are independent so neither cancels the other.
	var updateErr, insertErr error
	var g errgroup.Group
	g.Go(func() error {
		updateErr = e.store.UpdateEdgeStatus(ctx, edgeID, common.StatusAccepted)
		return nil
	})
	g.Go(func() error {
		insertErr = e.insertReverse(ctx, *edge)
		return nil
	})
	_ = g.Wait()

	switch {
	case updateErr == nil && insertErr == nil:
		return nil
	case updateErr != nil && insertErr != nil:
		return fmt.Errorf("accept request: %w", errors.Join(updateErr, insertErr))
	default:
		return &PartialAcceptError{EdgeID: edgeID, UpdateErr: updateErr, InsertErr: insertErr}
	}
}

// insertReverse inserts the accepted reverse of edge. When the reverse
// already exists, as with crossed requests, it is flipped instead.
func (e *Engine) insertReverse(ctx context.Context, edge common.FriendshipEdge) error {
	reverse := &common.FriendshipEdge{
		UserID:   edge.FriendID,
		FriendID: edge.UserID,
		Status:   common.StatusAccepted,
	}
	err := e.store.InsertEdge(ctx, reverse)
	if !errors.Is(err, common.ErrDuplicate) {
		return err
	}

	existing, err := e.store.Between(ctx, edge.UserID, edge.FriendID)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.Reverses(edge) && other.Status != common.StatusAccepted {
			return e.store.UpdateEdgeStatus(ctx, other.ID, common.StatusAccepted)
		}
	}
	return nil
}

func (e *Engine) DeclineRequest(ctx context.Context, edgeID string) error {
	if _, ok := e.session.Current(); !ok {
		return common.ErrUnauthenticated
	}

	var err error
	if err = e.store.DeleteEdge(ctx, edgeID); err != nil {
		e.log.Error().Err(err).Str("edge_id", edgeID).Msg("Failed to decline friend request")
		err = fmt.Errorf("decline request: %w", err)
	}
	return errors.Join(err, e.Refresh(ctx))
}

// Users lists every directory entry except self.
func (e *Engine) Users(ctx context.Context) ([]common.User, error) {
	identity, ok := e.session.Current()
	if !ok {
		return nil, common.ErrUnauthenticated
	}
	users, err := e.users.ListUsers(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	e.cache.RememberUsers(users)
	return users, nil
}

func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

func (e *Engine) viewLocked() View {
	return View{
		Friends:  append([]Friend(nil), e.friends...),
		Requests: append([]Request(nil), e.requests...),
		Loading:  e.loading,
	}
}

// Close releases both subscriptions and stops event-driven refreshes.
func (e *Engine) Close() error {
	e.mu.Lock()
	subs, stop := e.subs, e.stop
	e.subs, e.stop = nil, nil
	e.mu.Unlock()

	if stop != nil {
		stop()
	}
	return e.release(subs)
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
