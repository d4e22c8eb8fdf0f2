package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurkanbulca/taskhub/internal/access"
	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/repository"
)

// Team creation messages.
const (
	MsgTeamNameRequired    = "Team name is required"
	MsgInvalidManager      = "Manager must be an existing user with the manager role"
	MsgAdminCannotBeMember = "Admins cannot be team members"
)

// CreateTeamInput is the payload of CreateTeam. Ids are raw client values.
type CreateTeamInput struct {
	Name      string
	ManagerID string
	Members   []string
}

// TeamService creates and reads teams.
type TeamService struct {
	teams repository.TeamRepository
	users repository.UserRepository
	log   *zap.SugaredLogger
	now   Clock
}

func NewTeamService(teams repository.TeamRepository, users repository.UserRepository, log *zap.SugaredLogger) *TeamService {
	return &TeamService{
		teams: teams,
		users: users,
		log:   log.Named("service.team"),
		now:   systemClock,
	}
}

// CreateTeam validates the manager and members and stores the team with its
// membership in one step. Duplicate member ids are collapsed.
func (s *TeamService) CreateTeam(ctx context.Context, actor *models.Actor, in CreateTeamInput) (*models.TeamView, error) {
	if err := access.Authorize(actor, access.OpCreateTeam); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.BadRequest(MsgTeamNameRequired)
	}
	managerID, ok := parseID(in.ManagerID)
	if !ok {
		return nil, models.BadRequest(MsgInvalidManager)
	}

	memberIDs := make([]uuid.UUID, 0, len(in.Members))
	for _, raw := range in.Members {
		id, ok := parseID(raw)
		if !ok {
			return nil, models.NotFound(MsgUserNotFound)
		}
		memberIDs = append(memberIDs, id)
	}
	memberIDs = uniqueIDs(memberIDs)

	found, err := s.users.GetMany(ctx, append([]uuid.UUID{managerID}, memberIDs...))
	if err != nil {
		return nil, fmt.Errorf("load team users: %w", err)
	}

	manager, ok := found[managerID]
	if !ok || manager.Role != models.RoleManager {
		return nil, models.BadRequest(MsgInvalidManager)
	}

	now := s.now()
	team := &models.Team{
		ID:        uuid.New(),
		Name:      name,
		ManagerID: managerID,
		Members:   make([]models.TeamMember, 0, len(memberIDs)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, id := range memberIDs {
		u, ok := found[id]
		if !ok {
			return nil, models.NotFound(MsgUserNotFound)
		}
		if u.Role == models.RoleAdmin {
			return nil, models.BadRequest(MsgAdminCannotBeMember)
		}
		team.Members = append(team.Members, models.TeamMember{UserID: id, AddedAt: now})
	}

	if err := s.teams.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	s.log.Infow("team created", "team_id", team.ID, "manager_id", managerID, "members", len(team.Members))

	byID := make(map[uuid.UUID]*models.UserSummary, len(found))
	for id, u := range found {
		byID[id] = u.Summary()
	}
	return teamView(team, byID), nil
}

// ListTeams returns every team with manager and members populated.
func (s *TeamService) ListTeams(ctx context.Context, actor *models.Actor) ([]*models.TeamView, error) {
	if err := access.Authorize(actor, access.OpListTeams); err != nil {
		return nil, err
	}

	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	ids := make([]uuid.UUID, 0)
	for _, t := range teams {
		ids = append(ids, t.ManagerID)
		ids = append(ids, t.MemberIDs()...)
	}
	byID, err := summaries(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*models.TeamView, 0, len(teams))
	for _, t := range teams {
		views = append(views, teamView(t, byID))
	}
	return views, nil
}

// GetTeam returns a single populated team.
func (s *TeamService) GetTeam(ctx context.Context, actor *models.Actor, teamID string) (*models.TeamView, error) {
	if err := access.Authorize(actor, access.OpGetTeam); err != nil {
		return nil, err
	}

	id, ok := parseID(teamID)
	if !ok {
		return nil, models.NotFound(MsgTeamNotFound)
	}
	team, err := s.teams.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, MsgTeamNotFound, "get team")
	}

	byID, err := summaries(ctx, s.users, append([]uuid.UUID{team.ManagerID}, team.MemberIDs()...))
	if err != nil {
		return nil, err
	}
	return teamView(team, byID), nil
}

func teamView(t *models.Team, users map[uuid.UUID]*models.UserSummary) *models.TeamView {
	view := &models.TeamView{
		ID:        t.ID,
		Name:      t.Name,
		Manager:   users[t.ManagerID],
		Members:   make([]models.TeamMemberView, 0, len(t.Members)),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	for _, m := range t.Members {
		view.Members = append(view.Members, models.TeamMemberView{User: users[m.UserID], AddedAt: m.AddedAt})
	}
	return view
}
