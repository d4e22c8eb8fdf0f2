// Package service implements the task management use cases on top of the
// repository interfaces. Expected failures are returned as *models.Error.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/repository"
)

// Caller-facing messages shared by several services.
const (
	MsgTaskNotFound = "Task not found"
	MsgUserNotFound = "User not found"
	MsgTeamNotFound = "Team not found"
)

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// notFound replaces a repository ErrNotFound with a caller-facing message
// and wraps anything else.
func notFound(err error, msg, op string) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.NotFound(msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// managedTeam returns the team actor manages, or nil when there is none.
func managedTeam(ctx context.Context, teams repository.TeamRepository, managerID uuid.UUID) (*models.Team, error) {
	team, err := teams.GetByManager(ctx, managerID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get managed team: %w", err)
	}
	return team, nil
}

// summaries loads the users referenced by ids in one call.
func summaries(ctx context.Context, users repository.UserRepository, ids []uuid.UUID) (map[uuid.UUID]*models.UserSummary, error) {
	out := make(map[uuid.UUID]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := users.GetMany(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for id, u := range found {
		out[id] = u.Summary()
	}
	return out, nil
}

// parseID parses a client supplied id. Empty and malformed ids report false.
func parseID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
