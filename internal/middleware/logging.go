// internal/middleware/logging.go
package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// RequestLogger logs HTTP requests with method, path, status and duration.
func RequestLogger(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		dur := time.Since(start)

		reqID, _ := c.Locals("requestid").(string)
		if reqID == "" {
			reqID = c.Get(fiber.HeaderXRequestID)
		}
		fields := []interface{}{
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", c.Response().StatusCode(),
			"duration_ms", float64(dur.Microseconds()) / 1000.0,
			"request_id", reqID,
		}
		if actor := ActorFromContext(c.UserContext()); actor != nil {
			fields = append(fields, "user_id", actor.ID.String())
		}
		log.Infow("http", fields...)
		return err
	}
}

// UnaryLogger logs unary gRPC calls.
func UnaryLogger(log *zap.SugaredLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(ctx, log, info.FullMethod, start, err)
		return resp, err
	}
}

// StreamLogger logs gRPC streams when they end.
func StreamLogger(log *zap.SugaredLogger) grpc.StreamServerInterceptor {
	return func(srv interface{}, stream grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, stream)
		logCall(stream.Context(), log, info.FullMethod, start, err)
		return err
	}
}

func logCall(ctx context.Context, log *zap.SugaredLogger, method string, start time.Time, err error) {
	client := GetClientInfoFromContext(ctx)
	fields := []interface{}{
		"method", method,
		"code", status.Code(err).String(),
		"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
		"ip", client.IPAddress,
	}
	if err != nil {
		log.Warnw("grpc", append(fields, "error", err)...)
		return
	}
	log.Infow("grpc", fields...)
}
