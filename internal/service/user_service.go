package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gurkanbulca/taskhub/internal/access"
	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/repository"
)

// Role assignment messages. MsgInvalidRolePrefix is followed by the valid roles.
const (
	MsgInvalidRolePrefix   = "Plz provide valid roles "
	MsgRoleAlreadyAssigned = "This role is already assigned to user"
)

// UserService reads user accounts.
type UserService struct {
	users repository.UserRepository
	log   *zap.SugaredLogger
}

func NewUserService(users repository.UserRepository, log *zap.SugaredLogger) *UserService {
	return &UserService{users: users, log: log.Named("service.user")}
}

// Profile returns the actor's own account.
func (s *UserService) Profile(ctx context.Context, actor *models.Actor) (*models.User, error) {
	if err := access.Authorize(actor, access.OpViewProfile); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, MsgUserNotFound, "get user")
	}
	return u, nil
}

// List returns every account.
func (s *UserService) List(ctx context.Context, actor *models.Actor) ([]*models.User, error) {
	if err := access.Authorize(actor, access.OpListUsers); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// RoleService changes user roles.
type RoleService struct {
	users    repository.UserRepository
	security *SecurityLogger
	log      *zap.SugaredLogger
	now      Clock
}

func NewRoleService(users repository.UserRepository, securityLogger *SecurityLogger, log *zap.SugaredLogger) *RoleService {
	return &RoleService{
		users:    users,
		security: securityLogger,
		log:      log.Named("service.role"),
		now:      systemClock,
	}
}

// AssignRole sets the role of the target user. Only admins may call it.
func (s *RoleService) AssignRole(ctx context.Context, actor *models.Actor, targetID string, rawRole string) (*models.User, error) {
	if err := access.Authorize(actor, access.OpAssignRole); err != nil {
		return nil, err
	}

	role, err := models.ParseRole(rawRole)
	if err != nil {
		return nil, models.BadRequest(MsgInvalidRolePrefix + models.RoleNames())
	}

	id, ok := parseID(targetID)
	if !ok {
		return nil, models.NotFound(MsgUserNotFound)
	}

	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, MsgUserNotFound, "get user")
	}
	if target.Role == role {
		return nil, models.BadRequest(MsgRoleAlreadyAssigned)
	}

	updated, err := s.users.UpdateRole(ctx, id, role, s.now())
	if err != nil {
		return nil, notFound(err, MsgUserNotFound, "update role")
	}

	s.security.LogRoleAssigned(ctx, actor.ID, id, target.Role, role)
	return updated, nil
}
