// Package repository contains repository interfaces for persistence layers.
//
// Implementations return models.ErrNotFound when a row is missing and
// models.ErrAlreadyExists on uniqueness conflicts. Services attach the
// caller-facing message.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskhub/internal/models"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetByEmail matches the lower-cased address.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	// GetMany resolves references in bulk. Unknown ids are absent from the map.
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role, now time.Time) (*models.User, error)
}

// TeamRepository persists teams and their membership.
type TeamRepository interface {
	// Create writes the team and all members atomically.
	Create(ctx context.Context, t *models.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	// GetByManager returns the earliest created team managed by managerID.
	GetByManager(ctx context.Context, managerID uuid.UUID) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
}

// TaskRepository persists tasks.
type TaskRepository interface {
	Create(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, f ListFilter) ([]*models.Task, error)
	// Update applies patch to the task with id. When owner is set the task
	// must also be assigned to owner. Find and modify happen in one step.
	Update(ctx context.Context, id uuid.UUID, owner *uuid.UUID, patch models.TaskPatch, now time.Time) (*models.Task, error)
	// Delete removes and returns the task, with the same owner guard as Update.
	Delete(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*models.Task, error)
	// Analytics rolls tasks up per assignee. A task is overdue when it is
	// pending and its due date is before now.
	Analytics(ctx context.Context, f AnalyticsFilter, now time.Time) ([]models.TaskAnalytics, error)
}

// Scope restricts a query to tasks assigned to a set of users.
// The zero value is unscoped; a scoped query with no assignees matches nothing.
type Scope struct {
	Scoped    bool
	Assignees []uuid.UUID
}

// Unscoped matches every task.
func Unscoped() Scope { return Scope{} }

// AssignedTo scopes a query to the given assignees.
func AssignedTo(ids ...uuid.UUID) Scope {
	return Scope{Scoped: true, Assignees: ids}
}

// Empty reports whether the scope can match no task at all.
func (s Scope) Empty() bool {
	return s.Scoped && len(s.Assignees) == 0
}

// Includes reports whether a task assigned to id falls in the scope.
func (s Scope) Includes(id uuid.UUID) bool {
	if !s.Scoped {
		return true
	}
	for _, a := range s.Assignees {
		if a == id {
			return true
		}
	}
	return false
}

// ListFilter selects and orders tasks.
type ListFilter struct {
	Scope     Scope
	Status    *models.TaskStatus
	Priority  *models.Priority
	DueBefore *time.Time // inclusive
	Sort      SortField
	Desc      bool
}

// AnalyticsFilter selects the tasks that feed the analytics rollup.
type AnalyticsFilter struct {
	Scope Scope
}
