// internal/middleware/context_extractor.go
package middleware

import (
	"context"
	"net"

	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	"github.com/gurkanbulca/taskhub/internal/models"
)

// ContextKey types request scoped values stored in a context.
type ContextKey string

const (
	ContextKeyIPAddress ContextKey = "ip_address"
	ContextKeyUserAgent ContextKey = "user_agent"
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyActor     ContextKey = "actor"
)

// ClientInfo describes the caller of the current request.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// WithClientInfo stores the non-empty fields of info in ctx.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	if info.IPAddress != "" {
		ctx = context.WithValue(ctx, ContextKeyIPAddress, info.IPAddress)
	}
	if info.UserAgent != "" {
		ctx = context.WithValue(ctx, ContextKeyUserAgent, info.UserAgent)
	}
	if info.RequestID != "" {
		ctx = context.WithValue(ctx, ContextKeyRequestID, info.RequestID)
	}
	return ctx
}

// GetClientInfoFromContext returns whatever client information ctx carries.
func GetClientInfoFromContext(ctx context.Context) ClientInfo {
	info := ClientInfo{}
	info.IPAddress, _ = ctx.Value(ContextKeyIPAddress).(string)
	info.UserAgent, _ = ctx.Value(ContextKeyUserAgent).(string)
	info.RequestID, _ = ctx.Value(ContextKeyRequestID).(string)
	return info
}

// WithActor stores the authenticated actor in ctx.
func WithActor(ctx context.Context, actor *models.Actor) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

// ActorFromContext returns the authenticated actor, or nil.
func ActorFromContext(ctx context.Context) *models.Actor {
	actor, _ := ctx.Value(ContextKeyActor).(*models.Actor)
	return actor
}

// ClientInfoExtractor copies the caller's address, user agent and request id
// into the request's user context. It must run after requestid.
func ClientInfoExtractor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("requestid").(string)
		c.SetUserContext(WithClientInfo(c.UserContext(), ClientInfo{
			IPAddress: c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
			RequestID: reqID,
		}))
		return c.Next()
	}
}

// MetadataExtractorInterceptor extracts client metadata and adds it to context
type MetadataExtractorInterceptor struct{}

// NewMetadataExtractorInterceptor creates a new metadata extractor interceptor
func NewMetadataExtractorInterceptor() *MetadataExtractorInterceptor {
	return &MetadataExtractorInterceptor{}
}

// Unary returns a unary server interceptor for metadata extraction
func (m *MetadataExtractorInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		return handler(enrichContext(ctx), req)
	}
}

// Stream returns a stream server interceptor for metadata extraction
func (m *MetadataExtractorInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		stream grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		return handler(srv, &wrappedServerStream{
			ServerStream: stream,
			ctx:          enrichContext(stream.Context()),
		})
	}
}

func enrichContext(ctx context.Context) context.Context {
	return WithClientInfo(ctx, ClientInfo{
		IPAddress: extractIPAddress(ctx),
		UserAgent: firstMetadata(ctx, "user-agent", "grpc-user-agent", "x-user-agent"),
		RequestID: firstMetadata(ctx, "x-request-id"),
	})
}

// extractIPAddress extracts the client IP address from the context
func extractIPAddress(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}

	if tcpAddr, ok := p.Addr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}

	addr := p.Addr.String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// firstMetadata returns the first value found under any of keys.
func firstMetadata(ctx context.Context, keys ...string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, key := range keys {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// wrappedServerStream wraps grpc.ServerStream with an enriched context
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *wrappedServerStream) Context() context.Context {
	return s.ctx
}
