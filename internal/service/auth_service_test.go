// internal/service/auth_service_test.go
package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gurkanbulca/taskhub/internal/logger"
	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/repository/memory"
	"github.com/gurkanbulca/taskhub/pkg/auth"
	"github.com/gurkanbulca/taskhub/pkg/email"
)

const testAdminSecret = "let-me-in"

type authFixture struct {
	store  *memory.Store
	mailer *email.MockEmailService
	tokens *auth.TokenManager
	svc    *AuthService
	logs   *observer.ObservedLogs
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	store := memory.NewStore()
	mailer := email.NewMockEmailService()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	svc := NewAuthService(store.Users(), tokens, mailer, NewSecurityLogger(zap.New(core).Sugar()), testAdminSecret, logger.Nop())
	return &authFixture{store: store, mailer: mailer, tokens: tokens, svc: svc, logs: logs}
}

func (f *authFixture) register(t *testing.T, username, address, password string) *models.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{Username: username, Email: address, Password: password})
	require.NoError(t, err)
	return u
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name     string
		input    RegisterInput
		setup    func(t *testing.T, f *authFixture)
		wantKind error
		wantMsg  string
	}{
		{
			name:  "successful registration",
			input: RegisterInput{Username: "newuser", Email: "NewUser@Example.com", Password: "secret"},
		},
		{
			name:  "duplicate email",
			input: RegisterInput{Username: "other", Email: "taken@example.com", Password: "secret"},
			setup: func(t *testing.T, f *authFixture) {
				f.register(t, "first", "taken@example.com", "secret")
			},
			wantKind: models.ErrAlreadyExists,
			wantMsg:  MsgEmailTaken,
		},
		{
			name:     "missing fields",
			input:    RegisterInput{Username: "newuser", Email: "a@b.co"},
			wantKind: models.ErrInvalidArgument,
			wantMsg:  MsgRegisterFieldsRequired,
		},
		{
			name:     "short username",
			input:    RegisterInput{Username: "ab", Email: "ab@example.com", Password: "secret"},
			wantKind: models.ErrInvalidArgument,
			wantMsg:  MsgUsernameTooShort,
		},
		{
			name:     "invalid email format",
			input:    RegisterInput{Username: "newuser", Email: "invalid-email", Password: "secret"},
			wantKind: models.ErrInvalidArgument,
			wantMsg:  MsgInvalidEmail,
		},
		{
			name:     "weak password",
			input:    RegisterInput{Username: "newuser", Email: "weak@example.com", Password: "abc"},
			wantKind: models.ErrInvalidArgument,
			wantMsg:  MsgPasswordTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}

			u, err := f.svc.Register(context.Background(), tt.input)
			if tt.wantKind != nil {
				assert.ErrorIs(t, err, tt.wantKind)
				assert.EqualError(t, err, tt.wantMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, models.RoleUser, u.Role)
			assert.Equal(t, "newuser@example.com", u.Email)
			assert.NotEqual(t, tt.input.Password, u.PasswordHash)

			f.svc.Wait()
			sent := f.mailer.GetLastSentEmail()
			require.NotNil(t, sent)
			assert.Equal(t, "welcome", sent.Template)
			assert.Equal(t, u.Email, sent.To)
		})
	}
}

func TestAuthService_RegisterEmailFailureDoesNotFail(t *testing.T) {
	f := newAuthFixture(t)
	f.mailer.Err = errors.New("smtp down")

	u, err := f.svc.Register(context.Background(), RegisterInput{Username: "newuser", Email: "n@example.com", Password: "secret"})
	require.NoError(t, err)
	f.svc.Wait()

	stored, err := f.store.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, stored.Email)
	assert.Empty(t, f.mailer.GetSentEmails())
}

func TestAuthService_RegisterAdmin(t *testing.T) {
	f := newAuthFixture(t)
	in := RegisterInput{Username: "root", Email: "root@example.com", Password: "secret"}

	_, err := f.svc.RegisterAdmin(context.Background(), in, "guess")
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.EqualError(t, err, MsgInvalidSecretKey)

	u, err := f.svc.RegisterAdmin(context.Background(), in, testAdminSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	f.svc.Wait()
	sent := f.mailer.GetLastSentEmail()
	require.NotNil(t, sent)
	assert.Equal(t, "admin_created", sent.Template)

	entries := f.logs.FilterField(zap.String("event_type", "admin_registered")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestAuthService_RegisterAdminDisabledWithoutSecret(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.adminSecret = ""

	_, err := f.svc.RegisterAdmin(context.Background(), RegisterInput{Username: "root", Email: "root@example.com", Password: "secret"}, "")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "alice", "alice@example.com", "secret")

	tests := []struct {
		name     string
		email    string
		password string
		wantMsg  string
	}{
		{name: "missing fields", email: "", password: "secret", wantMsg: MsgLoginFieldsRequired},
		{name: "unknown email", email: "bob@example.com", password: "secret", wantMsg: MsgUserNotFound},
		{name: "wrong password", email: "alice@example.com", password: "wrong", wantMsg: MsgInvalidPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := f.svc.Login(context.Background(), tt.email, tt.password)
			assert.Nil(t, session)
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
			assert.EqualError(t, err, tt.wantMsg)
		})
	}

	session, err := f.svc.Login(context.Background(), "  ALICE@example.com ", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, u.ID, session.User.ID)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	claims, err := f.tokens.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)

	assert.Len(t, f.logs.FilterField(zap.String("event_type", "login_failed")).All(), 2)
	assert.Len(t, f.logs.FilterField(zap.String("event_type", "login_success")).All(), 1)
}

func TestAuthService_AuthenticateUsesCurrentRole(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.register(t, "alice", "alice@example.com", "secret")

	session, err := f.svc.Login(ctx, u.Email, "secret")
	require.NoError(t, err)

	_, err = f.store.Users().UpdateRole(ctx, u.ID, models.RoleManager, time.Now())
	require.NoError(t, err)

	actor, err := f.svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, actor.ID)
	assert.Equal(t, models.RoleManager, actor.Role)
}

func TestAuthService_AuthenticateRejects(t *testing.T) {
	f := newAuthFixture(t)
	ghostToken, _, err := f.tokens.Generate(uuid.New(), "user")
	require.NoError(t, err)

	other, err := auth.NewTokenManager("another-secret", time.Hour)
	require.NoError(t, err)
	u := f.register(t, "alice", "alice@example.com", "secret")
	foreignToken, _, err := other.Generate(u.ID, "admin")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "wrong signing key", token: foreignToken},
		{name: "deleted user", token: ghostToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor, err := f.svc.Authenticate(context.Background(), tt.token)
			assert.Nil(t, actor)
			assert.ErrorIs(t, err, models.ErrUnauthenticated)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "alice", "alice@example.com", "secret")

	require.NoError(t, f.svc.Logout(context.Background(), models.ActorFromUser(u)))
	assert.Len(t, f.logs.FilterField(zap.String("event_type", "logout")).All(), 1)

	assert.ErrorIs(t, f.svc.Logout(context.Background(), nil), models.ErrInvalidArgument)
}
