package grpcfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"chatsync/internal/common"
	"chatsync/internal/logging"
)

// TokenSource supplies the bearer token attached to every call. An empty
// token sends no authorization header.
type TokenSource interface {
	Token() string
}

// Client is a remote common.ChangeStream and common.Publisher. Each
// subscription is one server stream pumped by its own goroutine; there is no
// automatic resubscription when a stream breaks.
type Client struct {
	conn   grpc.ClientConnInterface
	tokens TokenSource
	log    zerolog.Logger

	mu   sync.Mutex
	subs map[common.SubscriptionID]context.CancelFunc
}

func NewClient(conn grpc.ClientConnInterface, tokens TokenSource, log zerolog.Logger) *Client {
	return &Client{
		conn:   conn,
		tokens: tokens,
		log:    logging.Component(log, "feed_client"),
		subs:   make(map[common.SubscriptionID]context.CancelFunc),
	}
}

// Subscribe returns once the server has registered the subscription, so an
// event published after Subscribe returns is delivered.
func (c *Client) Subscribe(ctx context.Context, filter common.TopicFilter, handler common.Handler) (common.SubscriptionID, error) {
	if handler == nil {
		return "", fmt.Errorf("subscribe %s: nil handler", filter.Table)
	}
	req, err := encodeFilter(filter)
	if err != nil {
		return "", fmt.Errorf("encode filter: %w", err)
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	streamCtx = withBearer(streamCtx, c.token())

	// ctx bounds only the handshake.
	stop := context.AfterFunc(ctx, cancel)
	stream, err := c.open(streamCtx, req)
	if !stop() {
		cancel()
		if err == nil {
			err = ctx.Err()
		}
	}
	if err != nil {
		cancel()
		return "", fmt.Errorf("subscribe %s: %w", filter.Table, err)
	}

	id := common.SubscriptionID(uuid.NewString())
	c.mu.Lock()
	c.subs[id] = cancel
	c.mu.Unlock()

	go c.pump(streamCtx, id, stream, handler)
	return id, nil
}

func (c *Client) open(ctx context.Context, req *structpb.Struct) (grpc.ClientStream, error) {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], SubscribeMethod)
	if err != nil {
		return nil, err
	}
	// io.EOF from SendMsg means the server already ended the stream; the
	// status surfaces on RecvMsg.
	if err := stream.SendMsg(req); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	ack := new(structpb.Struct)
	if err := stream.RecvMsg(ack); err != nil {
		return nil, err
	}
	if !isAck(ack) {
		return nil, errors.New("change feed did not acknowledge subscription")
	}
	return stream, nil
}

func (c *Client) pump(ctx context.Context, id common.SubscriptionID, stream grpc.ClientStream, handler common.Handler) {
	log := c.log.With().Str("subscription_id", string(id)).Logger()
	for {
		frame := new(structpb.Struct)
		if err := stream.RecvMsg(frame); err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("Change feed stream ended")
			}
			c.forget(id)
			return
		}
		ev, err := decodeEvent(frame)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping malformed event")
			continue
		}
		if ctx.Err() != nil {
			return
		}
		handler(ev)
	}
}

func (c *Client) Unsubscribe(id common.SubscriptionID) error {
	c.mu.Lock()
	cancel, ok := c.subs[id]
	delete(c.subs, id)
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("subscription %s: %w", id, common.ErrUnknownSubscription)
	}
	cancel()
	return nil
}

func (c *Client) Publish(ctx context.Context, ev common.ChangeEvent) error {
	req, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	return c.conn.Invoke(withBearer(ctx, c.token()), PublishMethod, req, new(emptypb.Empty))
}

// Close cancels every open subscription stream.
func (c *Client) Close() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[common.SubscriptionID]context.CancelFunc)
	c.mu.Unlock()

	for _, cancel := range subs {
		cancel()
	}
}

func (c *Client) forget(id common.SubscriptionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}
