// Package feed fans row change events out to subscribers.
package feed

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatsync/internal/common"
	"chatsync/internal/logging"
)

var ErrHubClosed = errors.New("change feed hub is closed")

// Hub is an in-process change stream. Each subscriber owns an unbounded queue
// drained by its own goroutine, so Publish never blocks on a slow handler and
// a handler may call back into the hub (Subscribe, Unsubscribe, Publish)
// without deadlocking.
type Hub struct {
	mu     sync.RWMutex
	subs   map[common.SubscriptionID]*subscriber
	closed bool
	log    zerolog.Logger
}

type subscriber struct {
	id      common.SubscriptionID
	filter  common.TopicFilter
	handler common.Handler

	mu     sync.Mutex
	queue  []common.ChangeEvent
	signal chan struct{}
	done   chan struct{}
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[common.SubscriptionID]*subscriber),
		log:  logging.Component(log, "feed_hub"),
	}
}

func (h *Hub) Subscribe(ctx context.Context, filter common.TopicFilter, handler common.Handler) (common.SubscriptionID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if handler == nil {
		return "", fmt.Errorf("subscribe %s: nil handler", filter.Table)
	}

	sub := &subscriber{
		id:      common.SubscriptionID(uuid.NewString()),
		filter:  filter,
		handler: handler,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return "", ErrHubClosed
	}
	h.subs[sub.id] = sub
	h.mu.Unlock()

	go sub.run()

	h.log.Debug().
		Str("subscription_id", string(sub.id)).
		Str("table", string(filter.Table)).
		Str("column", filter.Column).
		Str("value", filter.Value).
		Msg("Subscribed")
	return sub.id, nil
}

// Unsubscribe stops delivery. Events already handed to the handler finish;
// queued ones are dropped. It does not wait for the handler goroutine.
func (h *Hub) Unsubscribe(id common.SubscriptionID) error {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()

	if !ok {
		return fmt.Errorf("subscription %s: %w", id, common.ErrUnknownSubscription)
	}
	close(sub.done)
	h.log.Debug().Str("subscription_id", string(id)).Msg("Unsubscribed")
	return nil
}

func (h *Hub) Publish(ctx context.Context, ev common.ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.CommitTime.IsZero() {
		ev.CommitTime = time.Now().UTC()
	}
	ev.Record = maps.Clone(ev.Record)

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}

	delivered := 0
	for _, sub := range h.subs {
		if sub.filter.Matches(ev) {
			sub.enqueue(ev)
			delivered++
		}
	}
	h.log.Debug().
		Str("table", string(ev.Table)).
		Str("operation", string(ev.Operation)).
		Int("subscribers", delivered).
		Msg("Published change")
	return nil
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close drops every subscription. Later calls to Subscribe and Publish fail.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	h.subs = make(map[common.SubscriptionID]*subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		close(sub.done)
	}
}

func (s *subscriber) enqueue(ev common.ChangeEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}

		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, ev := range batch {
			select {
			case <-s.done:
				return
			default:
			}
			s.handler(ev)
		}
	}
}
