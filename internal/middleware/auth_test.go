package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/gurkanbulca/taskhub/internal/access"
	"github.com/gurkanbulca/taskhub/internal/models"
)

type stubAuthenticator struct {
	actors map[string]*models.Actor
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*models.Actor, error) {
	if a, ok := s.actors[token]; ok {
		return a, nil
	}
	return nil, models.Unauthenticated("User not found.")
}

type recordingDenials struct {
	ops []access.Operation
}

func (r *recordingDenials) AccessDenied(_ context.Context, _ *models.Actor, op access.Operation) {
	r.ops = append(r.ops, op)
}

func testErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		code = fiber.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		code = fiber.StatusForbidden
	}
	return c.Status(code).SendString(err.Error())
}

func newAuthApp(t *testing.T, denials DenialRecorder) (*fiber.App, *models.Actor, *models.Actor) {
	t.Helper()
	admin := &models.Actor{ID: uuid.New(), Role: models.RoleAdmin}
	user := &models.Actor{ID: uuid.New(), Role: models.RoleUser}
	authn := &stubAuthenticator{actors: map[string]*models.Actor{"admin-token": admin, "user-token": user}}
	mw := NewAuth(authn, "Authtoken", denials)

	app := fiber.New(fiber.Config{ErrorHandler: testErrorHandler})
	app.Get("/admin", mw.Authenticate(), mw.Require(access.OpAdminDashboard), func(c *fiber.Ctx) error {
		return c.SendString(ActorFromContext(c.UserContext()).ID.String())
	})
	return app, admin, user
}

func TestAuth_HTTP(t *testing.T) {
	denials := &recordingDenials{}
	app, admin, _ := newAuthApp(t, denials)

	tests := []struct {
		name     string
		cookie   string
		header   string
		wantCode int
		wantBody string
	}{
		{name: "no token", wantCode: http.StatusUnauthorized, wantBody: MsgNotAuthenticated},
		{name: "malformed header", header: "Token abc", wantCode: http.StatusUnauthorized, wantBody: MsgNotAuthenticated},
		{name: "unknown token", cookie: "stale", wantCode: http.StatusUnauthorized, wantBody: "User not found."},
		{name: "wrong role", cookie: "user-token", wantCode: http.StatusForbidden, wantBody: access.MsgPermissionDenied},
		{name: "cookie", cookie: "admin-token", wantCode: http.StatusOK, wantBody: admin.ID.String()},
		{name: "bearer header", header: "Bearer admin-token", wantCode: http.StatusOK, wantBody: admin.ID.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "Authtoken", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}

	assert.Equal(t, []access.Operation{access.OpAdminDashboard}, denials.ops)
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeServerStream) Context() context.Context { return f.ctx }

func TestAuthInterceptor_Stream(t *testing.T) {
	user := &models.Actor{ID: uuid.New(), Role: models.RoleUser}
	authn := &stubAuthenticator{actors: map[string]*models.Actor{"user-token": user}}
	const watch = "/taskhub.events.v1.TaskEvents/Watch"
	const adminOnly = "/taskhub.events.v1.TaskEvents/Admin"
	denials := &recordingDenials{}
	interceptor := NewAuthInterceptor(authn, denials, map[string]access.Operation{
		watch:     access.OpWatchTaskEvents,
		adminOnly: access.OpAdminDashboard,
	}).Stream()

	withToken := func(token string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
	}

	tests := []struct {
		name     string
		ctx      context.Context
		method   string
		wantCode codes.Code
	}{
		{name: "health is public", ctx: context.Background(), method: "/grpc.health.v1.Health/Watch", wantCode: codes.OK},
		{name: "missing metadata", ctx: context.Background(), method: watch, wantCode: codes.Unauthenticated},
		{name: "bad token", ctx: withToken("nope"), method: watch, wantCode: codes.Unauthenticated},
		{name: "allowed", ctx: withToken("user-token"), method: watch, wantCode: codes.OK},
		{name: "denied by role", ctx: withToken("user-token"), method: adminOnly, wantCode: codes.PermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *models.Actor
			handler := func(_ interface{}, stream grpc.ServerStream) error {
				seen = ActorFromContext(stream.Context())
				return nil
			}
			err := interceptor(nil, &fakeServerStream{ctx: tt.ctx}, &grpc.StreamServerInfo{FullMethod: tt.method}, handler)
			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.name == "allowed" {
				require.NotNil(t, seen)
				assert.Equal(t, user.ID, seen.ID)
			}
		})
	}
	assert.Equal(t, []access.Operation{access.OpAdminDashboard}, denials.ops)
}

func TestAuthInterceptor_Unary(t *testing.T) {
	authn := &stubAuthenticator{actors: map[string]*models.Actor{}}
	interceptor := NewAuthInterceptor(authn, nil, nil).Unary()

	called := false
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			called = true
			return nil, nil
		})
	require.NoError(t, err)
	assert.True(t, called)

	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/taskhub.Any/Call"},
		func(ctx context.Context, req interface{}) (interface{}, error) { return nil, nil })
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGRPCError(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
		msg  string
	}{
		{models.Unauthenticated("nope"), codes.Unauthenticated, "nope"},
		{models.Forbidden("no"), codes.PermissionDenied, "no"},
		{models.NotFound("Task not found"), codes.NotFound, "Task not found"},
		{models.BadRequest("bad"), codes.InvalidArgument, "bad"},
		{models.AlreadyExists("dup"), codes.AlreadyExists, "dup"},
		{errors.New("db exploded"), codes.Internal, "Internal server error"},
		{status.Error(codes.Canceled, "gone"), codes.Canceled, "gone"},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			st, ok := status.FromError(GRPCError(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.want, st.Code())
			assert.Equal(t, tt.msg, st.Message())
		})
	}
	assert.NoError(t, GRPCError(nil))
}
