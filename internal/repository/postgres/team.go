package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/gurkanbulca/taskhub/internal/models"
)

const (
	teamColumns = `id, name, manager_id, created_at, updated_at`

	insertTeamQuery = `INSERT INTO teams (id, name, manager_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`
	insertTeamMemberQuery = `INSERT INTO team_members (team_id, user_id, added_at) VALUES ($1, $2, $3)`
	selectTeamByIDQuery   = `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	selectTeamByManager   = `SELECT ` + teamColumns + ` FROM teams WHERE manager_id = $1 ORDER BY created_at, id LIMIT 1`
	selectTeamsQuery      = `SELECT ` + teamColumns + ` FROM teams ORDER BY created_at, id`
	selectMembersQuery    = `SELECT team_id, user_id, added_at FROM team_members WHERE team_id = ANY($1::uuid[]) ORDER BY added_at, user_id`
)

type memberRow struct {
	TeamID uuid.UUID `db:"team_id"`
	models.TeamMember
}

type TeamRepository struct {
	db  *sqlx.DB
	log *zap.SugaredLogger
}

func NewTeamRepository(db *sqlx.DB, log *zap.SugaredLogger) *TeamRepository {
	return &TeamRepository{db: db, log: log}
}

func (r *TeamRepository) Create(ctx context.Context, t *models.Team) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin team tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertTeamQuery, t.ID, t.Name, t.ManagerID, t.CreatedAt, t.UpdatedAt); err != nil {
		return mapError("insert team", err)
	}
	for _, m := range t.Members {
		if _, err := tx.ExecContext(ctx, insertTeamMemberQuery, t.ID, m.UserID, m.AddedAt); err != nil {
			return mapError("insert team member", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit team tx: %w", err)
	}

	r.log.Infow("team created", "team_id", t.ID, "members", len(t.Members))
	return nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var t models.Team
	if err := r.db.GetContext(ctx, &t, selectTeamByIDQuery, id); err != nil {
		return nil, mapError("get team", err)
	}
	if err := r.loadMembers(ctx, []*models.Team{&t}); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeamRepository) GetByManager(ctx context.Context, managerID uuid.UUID) (*models.Team, error) {
	var t models.Team
	if err := r.db.GetContext(ctx, &t, selectTeamByManager, managerID); err != nil {
		return nil, mapError("get team by manager", err)
	}
	if err := r.loadMembers(ctx, []*models.Team{&t}); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	teams := make([]*models.Team, 0)
	if err := r.db.SelectContext(ctx, &teams, selectTeamsQuery); err != nil {
		return nil, mapError("list teams", err)
	}
	if err := r.loadMembers(ctx, teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *TeamRepository) loadMembers(ctx context.Context, teams []*models.Team) error {
	if len(teams) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Team, len(teams))
	ids := make([]uuid.UUID, 0, len(teams))
	for _, t := range teams {
		t.Members = make([]models.TeamMember, 0)
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	var rows []memberRow
	if err := r.db.SelectContext(ctx, &rows, selectMembersQuery, uuidArray(ids)); err != nil {
		return mapError("list team members", err)
	}
	for _, row := range rows {
		if t, ok := byID[row.TeamID]; ok {
			t.Members = append(t.Members, row.TeamMember)
		}
	}
	return nil
}
