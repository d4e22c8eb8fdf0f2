package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gurkanbulca/taskhub/internal/access"
	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/repository"
)

// AnalyticsQuery scopes the analytics rollup. TeamID wins over UserID; with
// neither set every task is counted.
type AnalyticsQuery struct {
	UserID string
	TeamID string
}

// AnalyticsService aggregates task counts per assignee.
type AnalyticsService struct {
	tasks repository.TaskRepository
	teams repository.TeamRepository
	clock Clock
	log   *zap.SugaredLogger
}

// NewAnalyticsService creates the service. Overdue tasks are judged against
// clock at query time; a nil clock means the system clock.
func NewAnalyticsService(tasks repository.TaskRepository, teams repository.TeamRepository, clock Clock, log *zap.SugaredLogger) *AnalyticsService {
	if clock == nil {
		clock = systemClock
	}
	return &AnalyticsService{
		tasks: tasks,
		teams: teams,
		clock: clock,
		log:   log.Named("service.analytics"),
	}
}

// GetTaskAnalytics returns total, completed, pending and overdue counts
// grouped by assignee.
func (s *AnalyticsService) GetTaskAnalytics(ctx context.Context, actor *models.Actor, q AnalyticsQuery) ([]models.TaskAnalytics, error) {
	if err := access.Authorize(actor, access.OpTaskAnalytics); err != nil {
		return nil, err
	}

	scope := repository.Unscoped()
	switch {
	case strings.TrimSpace(q.TeamID) != "":
		id, ok := parseID(q.TeamID)
		if !ok {
			return nil, models.NotFound(MsgTeamNotFound)
		}
		team, err := s.teams.GetByID(ctx, id)
		if err != nil {
			return nil, notFound(err, MsgTeamNotFound, "get team")
		}
		scope = repository.AssignedTo(team.MemberIDs()...)
	case strings.TrimSpace(q.UserID) != "":
		id, ok := parseID(q.UserID)
		if !ok {
			return []models.TaskAnalytics{}, nil
		}
		scope = repository.AssignedTo(id)
	}

	rows, err := s.tasks.Analytics(ctx, repository.AnalyticsFilter{Scope: scope}, s.clock())
	if err != nil {
		return nil, fmt.Errorf("task analytics: %w", err)
	}
	return rows, nil
}
