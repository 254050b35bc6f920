// Package grpcfeed carries the change feed over gRPC: a server-streaming
// Subscribe and a unary Publish, both framed as google.protobuf.Struct.
package grpcfeed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"chatsync/internal/common"
	"chatsync/internal/logging"
)

const (
	ServiceName     = "chatsync.feed.v1.ChangeFeed"
	SubscribeMethod = "/" + ServiceName + "/Subscribe"
	PublishMethod   = "/" + ServiceName + "/Publish"

	eventBuffer = 256
)

// ChangeFeedServer is the server API for the ChangeFeed service.
type ChangeFeedServer interface {
	Publish(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Subscribe(*structpb.Struct, grpc.ServerStream) error
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChangeFeedServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Publish", Handler: publishHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
	Metadata: "chatsync/feed/v1/feed.proto",
}

func RegisterChangeFeedServer(s grpc.ServiceRegistrar, srv ChangeFeedServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func publishHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChangeFeedServer).Publish(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PublishMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ChangeFeedServer).Publish(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ChangeFeedServer).Subscribe(in, stream)
}

// Backend is the hub the server fronts.
type Backend interface {
	common.ChangeStream
	common.Publisher
}

type Server struct {
	backend Backend
	log     zerolog.Logger
}

func NewServer(backend Backend, log zerolog.Logger) *Server {
	return &Server{
		backend: backend,
		log:     logging.Component(log, "feed_server"),
	}
}

func (s *Server) Publish(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	ev, err := decodeEvent(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := validateEvent(ev); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if caller, ok := IdentityFromContext(ctx); ok && !mayPublish(caller, ev) {
		s.log.Warn().Str("user_id", caller.ID).Str("table", string(ev.Table)).Msg("Rejected publish for foreign row")
		return nil, status.Error(codes.PermissionDenied, "row does not belong to caller")
	}

	if err := s.backend.Publish(ctx, ev); err != nil {
		return nil, status.Errorf(codes.Unavailable, "publish: %v", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Subscribe(req *structpb.Struct, stream grpc.ServerStream) error {
	filter, err := decodeFilter(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	ctx := stream.Context()
	events := make(chan common.ChangeEvent, eventBuffer)
	id, err := s.backend.Subscribe(ctx, filter, func(ev common.ChangeEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return status.Errorf(codes.Unavailable, "subscribe: %v", err)
	}
	defer func() {
		if err := s.backend.Unsubscribe(id); err != nil && !errors.Is(err, common.ErrUnknownSubscription) {
			s.log.Warn().Err(err).Str("subscription_id", string(id)).Msg("Unsubscribe failed")
		}
	}()

	if err := stream.SendMsg(ackFrame(id)); err != nil {
		return err
	}

	log := s.log.With().Str("subscription_id", string(id)).Str("table", string(filter.Table)).Logger()
	log.Info().Str("column", filter.Column).Msg("Stream opened")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stream closed")
			return nil
		case ev := <-events:
			frame, err := encodeEvent(ev)
			if err != nil {
				log.Error().Err(err).Msg("Dropping unencodable event")
				continue
			}
			if err := stream.SendMsg(frame); err != nil {
				log.Warn().Err(err).Msg("Failed to send event")
				return err
			}
		}
	}
}

// mayPublish allows a caller to announce only rows it is a party to.
func mayPublish(caller common.Identity, ev common.ChangeEvent) bool {
	switch ev.Table {
	case common.TableMessages:
		sender, _ := ev.Record["sender_id"].(string)
		return sender == caller.ID
	case common.TableFriendships:
		user, _ := ev.Record["user_id"].(string)
		friend, _ := ev.Record["friend_id"].(string)
		return user == caller.ID || friend == caller.ID
	}
	return false
}
