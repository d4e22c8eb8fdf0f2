// internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/gurkanbulca/taskhub/internal/access"
	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/pkg/auth"
)

// MsgNotAuthenticated is returned when a request carries no session token.
const MsgNotAuthenticated = "User not authenticated"

// Authenticator resolves a session token to the current actor. The role
// must come from a fresh user lookup.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Actor, error)
}

// DenialRecorder is told about every request the policy table rejects.
type DenialRecorder interface {
	AccessDenied(ctx context.Context, actor *models.Actor, op access.Operation)
}

// Auth authenticates fiber requests and enforces the role policy.
type Auth struct {
	authn      Authenticator
	cookieName string
	denials    DenialRecorder
}

// NewAuth creates the HTTP auth middleware. denials may be nil.
func NewAuth(authn Authenticator, cookieName string, denials DenialRecorder) *Auth {
	return &Auth{authn: authn, cookieName: cookieName, denials: denials}
}

// Authenticate reads the session cookie, falling back to a bearer token,
// and stores the actor in the user context.
func (a *Auth) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(a.cookieName)
		if token == "" {
			if header := c.Get(fiber.HeaderAuthorization); header != "" {
				t, err := auth.ExtractTokenFromHeader(header)
				if err != nil {
					return models.Unauthenticated(MsgNotAuthenticated)
				}
				token = t
			}
		}
		if token == "" {
			return models.Unauthenticated(MsgNotAuthenticated)
		}

		actor, err := a.authn.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.SetUserContext(WithActor(c.UserContext(), actor))
		return c.Next()
	}
}

// Require rejects the request unless the actor's role may perform op.
func (a *Auth) Require(op access.Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		actor := ActorFromContext(ctx)
		if err := access.Authorize(actor, op); err != nil {
			if a.denials != nil {
				a.denials.AccessDenied(ctx, actor, op)
			}
			return err
		}
		return c.Next()
	}
}

// AuthInterceptor provides gRPC authentication and authorization.
type AuthInterceptor struct {
	authn         Authenticator
	denials       DenialRecorder
	publicMethods map[string]bool
	methodOps     map[string]access.Operation
}

// NewAuthInterceptor creates a new auth interceptor. methodOps maps full
// method names to the operation checked after authentication.
func NewAuthInterceptor(authn Authenticator, denials DenialRecorder, methodOps map[string]access.Operation) *AuthInterceptor {
	return &AuthInterceptor{
		authn:   authn,
		denials: denials,
		publicMethods: map[string]bool{
			"/grpc.health.v1.Health/Check": true,
			"/grpc.health.v1.Health/Watch": true,
		},
		methodOps: methodOps,
	}
}

// Unary returns a unary server interceptor for authentication
func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if a.publicMethods[info.FullMethod] || isReflection(info.FullMethod) {
			return handler(ctx, req)
		}

		newCtx, err := a.authorize(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(newCtx, req)
	}
}

// Stream returns a stream server interceptor for authentication
func (a *AuthInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		stream grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if a.publicMethods[info.FullMethod] || isReflection(info.FullMethod) {
			return handler(srv, stream)
		}

		newCtx, err := a.authorize(stream.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: stream, ctx: newCtx})
	}
}

func (a *AuthInterceptor) authorize(ctx context.Context, method string) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return nil, status.Error(codes.Unauthenticated, MsgNotAuthenticated)
	}

	token, err := auth.ExtractTokenFromHeader(authHeaders[0])
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	actor, err := a.authn.Authenticate(ctx, token)
	if err != nil {
		return nil, GRPCError(err)
	}
	ctx = WithActor(ctx, actor)

	if op, ok := a.methodOps[method]; ok {
		if err := access.Authorize(actor, op); err != nil {
			if a.denials != nil {
				a.denials.AccessDenied(ctx, actor, op)
			}
			return nil, GRPCError(err)
		}
	}
	return ctx, nil
}

func isReflection(method string) bool {
	const (
		v1       = "/grpc.reflection.v1.ServerReflection/ServerReflectionInfo"
		v1alpha1 = "/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo"
	)
	return method == v1 || method == v1alpha1
}

// GRPCError converts a service error into a gRPC status error.
func GRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	msg, expected := models.Message(err)
	if !expected {
		return status.Error(codes.Internal, "Internal server error")
	}

	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, msg)
	case errors.Is(err, models.ErrForbidden):
		return status.Error(codes.PermissionDenied, msg)
	case errors.Is(err, models.ErrNotFound):
		return status.Error(codes.NotFound, msg)
	case errors.Is(err, models.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, models.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, msg)
	default:
		return status.Error(codes.Internal, msg)
	}
}
