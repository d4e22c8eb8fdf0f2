// Package rest serves the task management API over HTTP with fiber.
package rest

import (
	"time"

	"go.uber.org/zap"

	"github.com/gurkanbulca/taskhub/internal/service"
)

// Services bundles the use cases the handlers call.
type Services struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Roles     *service.RoleService
	Teams     *service.TeamService
	Tasks     *service.TaskService
	Analytics *service.AnalyticsService
}

// Handler implements the HTTP endpoints on top of the service layer.
type Handler struct {
	log        *zap.SugaredLogger
	svc        Services
	cookieName string
	cookieTTL  time.Duration
	secure     bool
}

// NewHandler constructs the HTTP handlers. The session cookie is named
// cookieName and lives for ttl.
func NewHandler(log *zap.SugaredLogger, svc Services, cookieName string, ttl time.Duration, secureCookie bool) *Handler {
	return &Handler{
		log:        log.Named("http"),
		svc:        svc,
		cookieName: cookieName,
		cookieTTL:  ttl,
		secure:     secureCookie,
	}
}
