// Package rpc exposes the live task event stream over gRPC.
//
// The service is declared by hand with well-known protobuf types so no
// generated code is needed: Watch takes google.protobuf.Empty and streams
// google.protobuf.Struct messages shaped {"event": ..., "data": task}.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/gurkanbulca/taskhub/internal/events"
)

// Fully qualified names of the task event service.
const (
	TaskEventsServiceName = "taskhub.events.v1.TaskEvents"
	WatchMethod           = "/" + TaskEventsServiceName + "/Watch"
)

// Subscriber hands out event subscriptions.
type Subscriber interface {
	Subscribe() (<-chan events.Event, func())
}

// TaskEventsServer streams task events to connected observers.
type TaskEventsServer struct {
	events Subscriber
	log    *zap.SugaredLogger

	closing   chan struct{}
	closeOnce sync.Once
}

func NewTaskEventsServer(events Subscriber, log *zap.SugaredLogger) *TaskEventsServer {
	return &TaskEventsServer{
		events:  events,
		log:     log.Named("rpc.events"),
		closing: make(chan struct{}),
	}
}

// Close ends every open Watch call.
func (s *TaskEventsServer) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
}

// Watch sends every event published after the call started until the client
// goes away or the broker shuts down.
func (s *TaskEventsServer) Watch(_ *emptypb.Empty, stream grpc.ServerStream) error {
	ch, cancel := s.events.Subscribe()
	defer cancel()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.closing:
			return status.Error(codes.Unavailable, "server shutting down")
		case e, ok := <-ch:
			if !ok {
				return status.Error(codes.Unavailable, "event stream closed")
			}
			msg, err := EventToStruct(e)
			if err != nil {
				s.log.Errorw("encode task event", "event", e.Name, "task_id", e.Task.ID, "error", err)
				continue
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

// EventToStruct encodes e with its JSON field names.
func EventToStruct(e events.Event) (*structpb.Struct, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return structpb.NewStruct(fields)
}

func watchHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(*TaskEventsServer).Watch(in, stream)
}

// TaskEventsServiceDesc describes the service for grpc.Server.RegisterService.
var TaskEventsServiceDesc = grpc.ServiceDesc{
	ServiceName: TaskEventsServiceName,
	HandlerType: (*interface{})(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "taskhub/events/v1/events.proto",
}

// WatchClient receives task events from a Watch call.
type WatchClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type watchClient struct {
	grpc.ClientStream
}

func (c *watchClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := c.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Watch opens the event stream on conn.
func Watch(ctx context.Context, conn grpc.ClientConnInterface, opts ...grpc.CallOption) (WatchClient, error) {
	stream, err := conn.NewStream(ctx, &TaskEventsServiceDesc.Streams[0], WatchMethod, opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &watchClient{ClientStream: stream}, nil
}
