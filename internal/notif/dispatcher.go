// Package notif raises a notification for every message addressed to the
// signed-in user, whichever conversation is open.
package notif

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"chatsync/internal/common"
	"chatsync/internal/config"
	"chatsync/internal/directory"
	"chatsync/internal/logging"
)

const defaultPreviewLength = 50

type Options struct {
	PreviewLength int
}

func OptionsFromConfig(cfg config.NotificationConfig) Options {
	return Options{PreviewLength: cfg.PreviewLength}
}

type Dispatcher struct {
	session common.SessionProvider
	stream  common.ChangeStream
	cache   *directory.Cache
	sink    common.NotificationSink
	gate    common.PermissionGate
	opts    Options
	log     zerolog.Logger

	mu      sync.Mutex
	enabled bool
	sub     common.SubscriptionID
	stop    context.CancelFunc
}

func NewDispatcher(session common.SessionProvider, stream common.ChangeStream, cache *directory.Cache, sink common.NotificationSink, gate common.PermissionGate, opts Options, log zerolog.Logger) *Dispatcher {
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = defaultPreviewLength
	}
	return &Dispatcher{
		session: session,
		stream:  stream,
		cache:   cache,
		sink:    sink,
		gate:    gate,
		opts:    opts,
		log:     logging.Component(log, "dispatcher"),
	}
}

// Start asks the permission gate once and watches inserts addressed to self.
func (d *Dispatcher) Start(ctx context.Context) error {
	identity, ok := d.session.Current()
	if !ok {
		return common.ErrUnauthenticated
	}

	enabled := d.gate.IsGranted()
	if !enabled {
		enabled = d.gate.Request()
	}

	runCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	d.mu.Lock()
	d.enabled = enabled
	old, oldStop := d.sub, d.stop
	d.sub, d.stop = "", stop
	d.mu.Unlock()

	if oldStop != nil {
		oldStop()
	}
	if old != "" {
		if err := d.stream.Unsubscribe(old); err != nil {
			d.log.Warn().Err(err).Msg("Failed to release previous subscription")
		}
	}

	id, err := d.stream.Subscribe(ctx, common.TopicFilter{
		Table:      common.TableMessages,
		Operations: []common.Operation{common.OpInsert},
		Column:     "recipient_id",
		Value:      identity.ID,
	}, func(ev common.ChangeEvent) {
		msg, err := common.DecodeMessage(ev.Record)
		if err != nil {
			d.log.Warn().Err(err).Msg("Dropping malformed message event")
			return
		}
		d.OnInboundMessage(runCtx, msg)
	})
	if err != nil {
		stop()
		return fmt.Errorf("subscribe to inbound messages: %w", err)
	}

	d.mu.Lock()
	d.sub = id
	d.mu.Unlock()

	d.log.Info().Bool("enabled", enabled).Msg("Notification dispatcher started")
	return nil
}

// OnInboundMessage notifies about msg when it was sent to self by someone
// else. A sender the directory cannot resolve produces nothing.
func (d *Dispatcher) OnInboundMessage(ctx context.Context, msg common.Message) {
	identity, ok := d.session.Current()
	if !ok || msg.RecipientID != identity.ID || msg.SenderID == identity.ID {
		return
	}

	d.mu.Lock()
	enabled := d.enabled
	d.mu.Unlock()
	if !enabled {
		return
	}

	email, err := d.cache.Resolve(ctx, msg.SenderID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			d.log.Warn().Err(err).Str("sender_id", msg.SenderID).Msg("Sender lookup failed")
		}
		return
	}

	d.sink.Notify(Title(email), Preview(msg.Content, d.opts.PreviewLength))
}

// Title is the notification heading for a message from email.
func Title(email string) string {
	return "New message from " + email
}

// Preview truncates content to limit runes, marking the cut with "...".
func Preview(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

func (d *Dispatcher) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

func (d *Dispatcher) Close() error {
	d.mu.Lock()
	id, stop := d.sub, d.stop
	d.sub, d.stop = "", nil
	d.mu.Unlock()

	if stop != nil {
		stop()
	}
	if id == "" {
		return nil
	}
	return d.stream.Unsubscribe(id)
}
