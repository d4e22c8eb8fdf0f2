package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/gurkanbulca/taskhub/internal/access"
	"github.com/gurkanbulca/taskhub/internal/middleware"
)

// Config controls the gRPC listener.
type Config struct {
	Addr       string
	Reflection bool
}

// Server is the gRPC server carrying the event stream and health checks.
type Server struct {
	cfg    Config
	grpc   *grpc.Server
	health *health.Server
	events *TaskEventsServer
	log    *zap.SugaredLogger
}

// methodOps maps each protected method to the operation it requires.
var methodOps = map[string]access.Operation{
	WatchMethod: access.OpWatchTaskEvents,
}

// NewServer builds the server with the interceptor chain and registers the
// task event, health and, when enabled, reflection services.
func NewServer(cfg Config, subscriber Subscriber, authn middleware.Authenticator, denials middleware.DenialRecorder, log *zap.SugaredLogger) *Server {
	log = log.Named("grpc")
	metadataExtractor := middleware.NewMetadataExtractorInterceptor()
	authInterceptor := middleware.NewAuthInterceptor(authn, denials, methodOps)

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			metadataExtractor.Unary(),
			middleware.UnaryLogger(log),
			authInterceptor.Unary(),
		),
		grpc.ChainStreamInterceptor(
			metadataExtractor.Stream(),
			middleware.StreamLogger(log),
			authInterceptor.Stream(),
		),
	)

	eventsServer := NewTaskEventsServer(subscriber, log)
	srv.RegisterService(&TaskEventsServiceDesc, eventsServer)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(TaskEventsServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if cfg.Reflection {
		reflection.Register(srv)
	}

	return &Server{cfg: cfg, grpc: srv, health: hs, events: eventsServer, log: log}
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Run listens on the configured address and serves until ctx is cancelled,
// then drains in-flight streams.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.log.Infow("gRPC server listening", "addr", lis.Addr().String(), "reflection", s.cfg.Reflection)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(lis) }()

	select {
	case <-ctx.Done():
		s.Stop()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// Stop marks the server as not serving, ends open event streams and waits
// for in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.events.Close()
	s.grpc.GracefulStop()
}
