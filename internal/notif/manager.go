package notif

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatsync/internal/logging"
)

// Notification is one user-visible alert.
type Notification struct {
	Title     string
	Body      string
	CreatedAt time.Time
}

// Sink delivers notifications to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

// Manager fans notifications out to every registered sink from a pool of
// workers. It satisfies common.NotificationSink, so callers never block on
// delivery.
type Manager struct {
	sinks   map[string]Sink
	events  chan Notification
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	log     zerolog.Logger
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

func NewManager(workers, buffer int, log zerolog.Logger) *Manager {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 100
	}
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		sinks:   make(map[string]Sink),
		events:  make(chan Notification, buffer),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		log:     logging.Component(log, "notifications"),
	}

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.processEvents()
	}

	return m
}

func (m *Manager) Register(sink Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks[sink.Name()] = sink
	m.log.Info().Str("sink", sink.Name()).Msg("Sink registered")
}

func (m *Manager) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sinks, name)
	m.log.Info().Str("sink", name).Msg("Sink unregistered")
}

// Deliver hands n to every sink on the calling goroutine. Sink failures are
// logged and do not stop the fan-out.
func (m *Manager) Deliver(ctx context.Context, n Notification) {
	m.mu.RLock()
	sinks := make([]Sink, 0, len(m.sinks))
	for _, s := range m.sinks {
		sinks = append(sinks, s)
	}
	m.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Deliver(ctx, n); err != nil {
			m.log.Warn().Err(err).Str("sink", sink.Name()).Msg("Sink delivery failed")
		}
	}
}

// Notify queues a notification for the workers. A full queue drops it.
func (m *Manager) Notify(title, body string) {
	m.Enqueue(Notification{Title: title, Body: body, CreatedAt: time.Now().UTC()})
}

func (m *Manager) Enqueue(n Notification) {
	select {
	case <-m.ctx.Done():
		return
	default:
	}

	select {
	case m.events <- n:
	case <-m.ctx.Done():
	default:
		m.log.Warn().Str("title", n.Title).Msg("Notification queue full, dropping")
	}
}

func (m *Manager) processEvents() {
	defer m.wg.Done()

	for {
		select {
		case n := <-m.events:
			m.Deliver(m.ctx, n)
		case <-m.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers. Queued notifications are discarded.
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()
	m.log.Info().Msg("Notification manager shutdown complete")
}
