// internal/service/auth_service.go
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/repository"
	"github.com/gurkanbulca/taskhub/pkg/auth"
	"github.com/gurkanbulca/taskhub/pkg/email"
)

// Registration and login messages.
const (
	MsgRegisterFieldsRequired = "All fields (username, email, password) are required."
	MsgUsernameTooShort       = "Username must be at least 3 characters long."
	MsgInvalidEmail           = "Invalid email address."
	MsgPasswordTooShort       = "Password must be at least 5 characters long."
	MsgEmailTaken             = "Email is already registered."
	MsgLoginFieldsRequired    = "Missing Required fields"
	MsgInvalidPassword        = "Invalid password!"
	MsgInvalidSecretKey       = "Invalid secret key"
	MsgInvalidSession         = "Invalid or expired token"
	MsgSessionUserGone        = "User not found."
)

const notificationTimeout = 30 * time.Second

// RegisterInput is the payload of a self-service registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Session is an issued login session.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// AuthService handles registration, login and session verification.
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenManager
	passwords   *auth.PasswordManager
	mailer      email.EmailService
	security    *SecurityLogger
	adminSecret string
	log         *zap.SugaredLogger
	now         Clock

	notifications sync.WaitGroup
}

// NewAuthService creates a new authentication service. An empty adminSecret
// disables admin registration.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenManager,
	mailer email.EmailService,
	securityLogger *SecurityLogger,
	adminSecret string,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		passwords:   auth.NewPasswordManager(),
		mailer:      mailer,
		security:    securityLogger,
		adminSecret: adminSecret,
		log:         log.Named("service.auth"),
		now:         systemClock,
	}
}

// Register creates a user with the user role and sends a welcome email in
// the background.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	u, err := s.createUser(ctx, in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	s.notify(u, "welcome", s.mailer.SendWelcomeEmail)
	return u, nil
}

// RegisterAdmin creates an admin when secretKey matches the configured secret.
func (s *AuthService) RegisterAdmin(ctx context.Context, in RegisterInput, secretKey string) (*models.User, error) {
	if s.adminSecret == "" || subtle.ConstantTimeCompare([]byte(secretKey), []byte(s.adminSecret)) != 1 {
		return nil, models.Forbidden(MsgInvalidSecretKey)
	}

	u, err := s.createUser(ctx, in, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.security.LogAdminRegistered(ctx, u.ID)
	s.notify(u, "admin_created", s.mailer.SendAdminCreatedEmail)
	return u, nil
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	address := strings.ToLower(strings.TrimSpace(in.Email))

	if err := s.validateRegistration(username, address, in.Password); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, address)
	switch {
	case err == nil:
		return nil, models.AlreadyExists(MsgEmailTaken)
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hash, err := s.passwords.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        address,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			return nil, models.AlreadyExists(MsgEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Infow("user registered", "user_id", u.ID, "role", role)
	return u, nil
}

func (s *AuthService) validateRegistration(username, address, password string) error {
	if username == "" || address == "" || password == "" {
		return models.BadRequest(MsgRegisterFieldsRequired)
	}
	if err := auth.ValidateUsername(username); err != nil {
		return models.BadRequest(MsgUsernameTooShort)
	}
	if err := auth.ValidateEmail(address); err != nil {
		return models.BadRequest(MsgInvalidEmail)
	}
	if err := s.passwords.ValidatePassword(password); err != nil {
		return models.BadRequest(MsgPasswordTooShort)
	}
	return nil
}

// notify sends an email without blocking the request. Failures are logged only.
func (s *AuthService) notify(u *models.User, kind string, send func(context.Context, *models.User) error) {
	if s.mailer == nil {
		return
	}
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		if err := send(ctx, u); err != nil {
			s.log.Warnw("failed to send email", "kind", kind, "user_id", u.ID, "error", err)
		}
	}()
}

// Wait blocks until all background notifications have finished.
func (s *AuthService) Wait() {
	s.notifications.Wait()
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, address, password string) (*Session, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" || password == "" {
		return nil, models.BadRequest(MsgLoginFieldsRequired)
	}

	u, err := s.users.GetByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.security.LogLoginFailed(ctx, address, "unknown email")
			return nil, models.BadRequest(MsgUserNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !s.passwords.ComparePassword(u.PasswordHash, password) {
		s.security.LogLoginFailed(ctx, address, "invalid password")
		return nil, models.BadRequest(MsgInvalidPassword)
	}

	token, expiresAt, err := s.tokens.Generate(u.ID, u.Role.String())
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.security.LogLoginSuccess(ctx, u.ID)
	return &Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// Logout records the end of the actor's session. Tokens are stateless, so
// the transport is responsible for discarding the cookie.
func (s *AuthService) Logout(ctx context.Context, actor *models.Actor) error {
	if actor == nil {
		return models.BadRequest(MsgUserNotFound)
	}
	s.security.LogLogout(ctx, actor.ID)
	return nil
}

// Authenticate verifies token and reloads the user so the current role is used.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Actor, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, models.Unauthenticated(MsgInvalidSession)
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, models.Unauthenticated(MsgInvalidSession)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.Unauthenticated(MsgSessionUserGone)
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return models.ActorFromUser(u), nil
}
