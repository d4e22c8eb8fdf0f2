// internal/service/security_logger.go
package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurkanbulca/taskhub/internal/access"
	"github.com/gurkanbulca/taskhub/internal/middleware"
	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/pkg/security"
)

// SecurityLogger writes security events as structured log entries.
type SecurityLogger struct {
	log *zap.SugaredLogger
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger(log *zap.SugaredLogger) *SecurityLogger {
	return &SecurityLogger{log: log.Named("security")}
}

// LogFromContext logs a security event with the client information in ctx.
// userID may be uuid.Nil for events without a known user.
func (sl *SecurityLogger) LogFromContext(ctx context.Context, userID uuid.UUID, eventType security.EventType, description string, kv ...interface{}) {
	client := middleware.GetClientInfoFromContext(ctx)
	severity := security.DefaultSeverity(eventType)

	fields := []interface{}{
		"event_type", string(eventType),
		"severity", string(severity),
		"ip_address", client.IPAddress,
		"user_agent", client.UserAgent,
	}
	if client.RequestID != "" {
		fields = append(fields, "request_id", client.RequestID)
	}
	if userID != uuid.Nil {
		fields = append(fields, "user_id", userID.String())
	}
	fields = append(fields, kv...)

	sl.log.Logw(severity.Level(), description, fields...)
}

func (sl *SecurityLogger) LogLoginSuccess(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeLoginSuccess, "User successfully logged in")
}

func (sl *SecurityLogger) LogLoginFailed(ctx context.Context, email, reason string) {
	sl.LogFromContext(ctx, uuid.Nil, security.EventTypeLoginFailed, "Login failed",
		"email", email, "reason", reason)
}

func (sl *SecurityLogger) LogLogout(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeLogout, "User logged out")
}

func (sl *SecurityLogger) LogAdminRegistered(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeAdminRegistered, "Administrator account created")
}

func (sl *SecurityLogger) LogRoleAssigned(ctx context.Context, actorID, targetID uuid.UUID, from, to models.Role) {
	sl.LogFromContext(ctx, actorID, security.EventTypeRoleAssigned, "Role assigned",
		"target_user_id", targetID.String(), "from_role", from.String(), "to_role", to.String())
}

// AccessDenied records a request rejected by the role policy.
func (sl *SecurityLogger) AccessDenied(ctx context.Context, actor *models.Actor, op access.Operation) {
	var (
		userID uuid.UUID
		role   string
	)
	if actor != nil {
		userID = actor.ID
		role = actor.Role.String()
	}
	sl.LogFromContext(ctx, userID, security.EventTypeAccessDenied, "Access denied",
		"operation", string(op), "role", role)
}
