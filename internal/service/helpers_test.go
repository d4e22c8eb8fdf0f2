package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskhub/internal/events"
	"github.com/gurkanbulca/taskhub/internal/logger"
	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/repository/memory"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e events.Event) {
	m.Called(ctx, e)
}

// expectTaskEvent registers one updateTaskEvent for taskID.
func (m *mockPublisher) expectTaskEvent(taskID uuid.UUID) *mock.Call {
	return m.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Name == events.TaskUpdated && e.Task.ID == taskID
	})).Once()
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	pub   *mockPublisher
	tasks *TaskService
	teams *TeamService
	roles *RoleService
	users *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Nop()
	store := memory.NewStore()
	pub := &mockPublisher{}
	pub.Test(t)
	t.Cleanup(func() { pub.AssertExpectations(t) })

	clock := func() time.Time { return fixedNow }
	f := &fixture{
		store: store,
		pub:   pub,
		tasks: NewTaskService(store.Tasks(), store.Users(), store.Teams(), pub, log),
		teams: NewTeamService(store.Teams(), store.Users(), log),
		roles: NewRoleService(store.Users(), NewSecurityLogger(log), log),
		users: NewUserService(store.Users(), log),
	}
	f.tasks.now = clock
	f.teams.now = clock
	f.roles.now = clock
	return f
}

func (f *fixture) user(t *testing.T, name string, role models.Role) *models.Actor {
	t.Helper()
	u := &models.User{
		ID:        uuid.New(),
		Username:  name,
		Email:     name + "@example.com",
		Role:      role,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return models.ActorFromUser(u)
}

func (f *fixture) team(t *testing.T, name string, manager *models.Actor, members ...*models.Actor) *models.Team {
	t.Helper()
	team := &models.Team{ID: uuid.New(), Name: name, ManagerID: manager.ID, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	for _, m := range members {
		team.Members = append(team.Members, models.TeamMember{UserID: m.ID, AddedAt: fixedNow})
	}
	require.NoError(t, f.store.Teams().Create(context.Background(), team))
	return team
}

func (f *fixture) task(t *testing.T, owner *models.Actor, title string) *models.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(context.Background(), owner, CreateTaskInput{Title: title})
	require.NoError(t, err)
	return task
}

func strPtr(s string) *string { return &s }
