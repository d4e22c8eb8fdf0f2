package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/repository"
)

func TestTaskService_CreateTaskAlwaysSelfAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, role := range models.Roles() {
		t.Run(string(role), func(t *testing.T) {
			actor := f.user(t, "creator-"+string(role), role)
			task, err := f.tasks.CreateTask(ctx, actor, CreateTaskInput{Title: "  write docs  ", Description: "d"})
			require.NoError(t, err)

			assert.Equal(t, actor.ID, task.AssignedTo)
			assert.Equal(t, actor.ID, task.AssignedBy)
			assert.Equal(t, "write docs", task.Title)
			assert.Equal(t, models.PriorityMedium, task.Priority)
			assert.Equal(t, models.TaskStatusPending, task.Status)
			assert.Equal(t, fixedNow, task.CreatedAt)

			stored, err := f.store.Tasks().GetByID(ctx, task.ID)
			require.NoError(t, err)
			assert.Equal(t, actor.ID, stored.AssignedTo)
		})
	}
}

func TestTaskService_CreateTaskValidation(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "alice", models.RoleUser)

	tests := []struct {
		name  string
		input CreateTaskInput
	}{
		{name: "missing title", input: CreateTaskInput{Title: "   "}},
		{name: "unknown priority", input: CreateTaskInput{Title: "t", Priority: "urgent"}},
		{name: "unknown status", input: CreateTaskInput{Title: "t", Status: "done"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tasks.CreateTask(context.Background(), actor, tt.input)
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
		})
	}

	task, err := f.tasks.CreateTask(context.Background(), actor, CreateTaskInput{Title: "t", Priority: "high", Status: "on-hold"})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, models.TaskStatusOnHold, task.Status)
}

func TestTaskService_OwnTaskGuardIgnoresRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", models.RoleUser)
	admin := f.user(t, "admin", models.RoleAdmin)
	task := f.task(t, owner, "mine")

	_, err := f.tasks.UpdateOwnTask(ctx, admin, task.ID.String(), TaskUpdate{Title: strPtr("taken over")})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.EqualError(t, err, MsgTaskNotFound)

	_, err = f.tasks.DeleteOwnTask(ctx, admin, task.ID.String())
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.tasks.UpdateOwnTask(ctx, owner, "not-an-id", TaskUpdate{Title: strPtr("x")})
	assert.ErrorIs(t, err, models.ErrNotFound)

	stored, err := f.store.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", stored.Title)
}

func TestTaskService_UpdateOwnTaskEmitsEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", models.RoleUser)
	task := f.task(t, owner, "mine")

	f.pub.expectTaskEvent(task.ID)
	updated, err := f.tasks.UpdateOwnTask(ctx, owner, task.ID.String(), TaskUpdate{
		Status:   strPtr("completed"),
		Priority: strPtr("low"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, updated.Status)
	assert.Equal(t, models.PriorityLow, updated.Priority)
	assert.Equal(t, "mine", updated.Title)

	_, err = f.tasks.UpdateOwnTask(ctx, owner, task.ID.String(), TaskUpdate{Status: strPtr("archived")})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestTaskService_DeleteOwnTaskEmitsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", models.RoleUser)
	task := f.task(t, owner, "mine")

	deleted, err := f.tasks.DeleteOwnTask(ctx, owner, task.ID.String())
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted.ID)

	_, err = f.tasks.DeleteOwnTask(ctx, owner, task.ID.String())
	assert.ErrorIs(t, err, models.ErrNotFound)
	f.pub.AssertNotCalled(t, "Publish")
}

func TestTaskService_ListOwnTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", models.RoleUser)
	bob := f.user(t, "bob", models.RoleUser)

	soon := fixedNow.Add(24 * time.Hour)
	later := fixedNow.Add(72 * time.Hour)
	_, err := f.tasks.CreateTask(ctx, alice, CreateTaskInput{Title: "b-soon", DueDate: &soon, Priority: "high"})
	require.NoError(t, err)
	_, err = f.tasks.CreateTask(ctx, alice, CreateTaskInput{Title: "a-later", DueDate: &later, Priority: "low"})
	require.NoError(t, err)
	f.task(t, bob, "bob's")

	tests := []struct {
		name  string
		query TaskQuery
		want  []string
	}{
		{name: "only own tasks", query: TaskQuery{}, want: []string{"b-soon", "a-later"}},
		{name: "priority filter", query: TaskQuery{Priority: "low"}, want: []string{"a-later"}},
		{name: "due on or before", query: TaskQuery{DueBefore: &soon}, want: []string{"b-soon"}},
		{name: "sort by title", query: TaskQuery{SortField: "title"}, want: []string{"a-later", "b-soon"}},
		{name: "sort by priority desc", query: TaskQuery{SortField: "priority", SortOrder: "desc"}, want: []string{"b-soon", "a-later"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := f.tasks.ListOwnTasks(ctx, alice, tt.query)
			require.NoError(t, err)
			titles := make([]string, 0, len(tasks))
			for _, task := range tasks {
				titles = append(titles, task.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}

	_, err = f.tasks.ListOwnTasks(ctx, alice, TaskQuery{SortField: "password"})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestTaskService_ListAllTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin", models.RoleAdmin)
	manager := f.user(t, "manager", models.RoleManager)
	lonely := f.user(t, "lonely", models.RoleManager)
	member := f.user(t, "member", models.RoleUser)
	outsider := f.user(t, "outsider", models.RoleUser)
	f.team(t, "core", manager, member)

	f.task(t, member, "member task")
	f.task(t, outsider, "outsider task")

	all, err := f.tasks.ListAllTasks(ctx, admin, TaskQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].Assignee)
	assert.Equal(t, "member", all[0].Assignee.Username)
	assert.Equal(t, "member@example.com", all[0].Assigner.Email)

	scoped, err := f.tasks.ListAllTasks(ctx, manager, TaskQuery{})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "member task", scoped[0].Title)

	none, err := f.tasks.ListAllTasks(ctx, lonely, TaskQuery{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = f.tasks.ListAllTasks(ctx, member, TaskQuery{})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestTaskService_AssignTaskTeamScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userA := f.user(t, "a", models.RoleUser)
	other := f.user(t, "other", models.RoleUser)
	m := f.user(t, "m", models.RoleManager)
	m2 := f.user(t, "m2", models.RoleManager)
	f.team(t, "not A's", m, other)
	f.team(t, "A's team", m2, userA)

	task := f.task(t, userA, "T")

	_, err := f.tasks.AssignTask(ctx, m, task.ID.String(), userA.ID.String())
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.EqualError(t, err, MsgAssignOutsideTeam)

	f.pub.expectTaskEvent(task.ID)
	assigned, err := f.tasks.AssignTask(ctx, m2, task.ID.String(), userA.ID.String())
	require.NoError(t, err)
	assert.Equal(t, userA.ID, assigned.AssignedTo)
	assert.Equal(t, userA.ID, assigned.AssignedBy)
}

func TestTaskService_AssignTaskByAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin", models.RoleAdmin)
	owner := f.user(t, "owner", models.RoleUser)
	target := f.user(t, "target", models.RoleUser)
	task := f.task(t, owner, "T")

	f.pub.expectTaskEvent(task.ID)
	assigned, err := f.tasks.AssignTask(ctx, admin, task.ID.String(), target.ID.String())
	require.NoError(t, err)
	assert.Equal(t, target.ID, assigned.AssignedTo)

	tests := []struct {
		name     string
		actor    *models.Actor
		taskID   string
		assignee string
		wantKind error
		wantMsg  string
	}{
		{name: "missing task", actor: admin, taskID: uuid.NewString(), assignee: target.ID.String(), wantKind: models.ErrNotFound, wantMsg: MsgTaskNotFound},
		{name: "missing user", actor: admin, taskID: task.ID.String(), assignee: uuid.NewString(), wantKind: models.ErrNotFound, wantMsg: MsgUserNotFound},
		{name: "both missing reports task", actor: admin, taskID: uuid.NewString(), assignee: uuid.NewString(), wantKind: models.ErrNotFound, wantMsg: MsgTaskNotFound},
		{name: "empty ids", actor: admin, taskID: "", assignee: "", wantKind: models.ErrInvalidArgument, wantMsg: MsgAssignFieldsRequired},
		{name: "plain user", actor: owner, taskID: task.ID.String(), assignee: owner.ID.String(), wantKind: models.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tasks.AssignTask(ctx, tt.actor, tt.taskID, tt.assignee)
			assert.ErrorIs(t, err, tt.wantKind)
			if tt.wantMsg != "" {
				assert.EqualError(t, err, tt.wantMsg)
			}
		})
	}
}

func TestTaskService_UpdateTaskForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin", models.RoleAdmin)
	manager := f.user(t, "manager", models.RoleManager)
	lonely := f.user(t, "lonely", models.RoleManager)
	member := f.user(t, "member", models.RoleUser)
	outsider := f.user(t, "outsider", models.RoleUser)
	f.team(t, "core", manager, member)

	memberTask := f.task(t, member, "member task")
	outsiderTask := f.task(t, outsider, "outsider task")
	upd := TaskUpdate{Status: strPtr("in-progress")}

	tests := []struct {
		name     string
		actor    *models.Actor
		taskID   string
		update   TaskUpdate
		wantKind error
		wantMsg  string
	}{
		{name: "no task id", actor: admin, taskID: "", update: upd, wantKind: models.ErrInvalidArgument, wantMsg: MsgTaskUpdatesRequired},
		{name: "no updates", actor: admin, taskID: memberTask.ID.String(), wantKind: models.ErrInvalidArgument, wantMsg: MsgTaskUpdatesRequired},
		{name: "unknown task", actor: admin, taskID: uuid.NewString(), update: upd, wantKind: models.ErrNotFound, wantMsg: MsgTaskNotFound},
		{name: "manager without team", actor: lonely, taskID: memberTask.ID.String(), update: upd, wantKind: models.ErrForbidden, wantMsg: MsgNotManagingTeam},
		{name: "outside team", actor: manager, taskID: outsiderTask.ID.String(), update: upd, wantKind: models.ErrForbidden, wantMsg: MsgUpdateOutsideTeam},
		{name: "plain user", actor: member, taskID: memberTask.ID.String(), update: upd, wantKind: models.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tasks.UpdateTaskForUser(ctx, tt.actor, tt.taskID, tt.update)
			assert.ErrorIs(t, err, tt.wantKind)
			if tt.wantMsg != "" {
				assert.EqualError(t, err, tt.wantMsg)
			}
		})
	}

	f.pub.expectTaskEvent(memberTask.ID)
	updated, err := f.tasks.UpdateTaskForUser(ctx, manager, memberTask.ID.String(), upd)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusInProgress, updated.Status)

	f.pub.expectTaskEvent(outsiderTask.ID)
	updated, err = f.tasks.UpdateTaskForUser(ctx, admin, outsiderTask.ID.String(), TaskUpdate{Title: strPtr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
}

var errBroken = errors.New("connection reset")

type brokenTaskRepo struct {
	repository.TaskRepository
}

func (brokenTaskRepo) List(context.Context, repository.ListFilter) ([]*models.Task, error) {
	return nil, errBroken
}

func TestTaskService_RepositoryFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "alice", models.RoleUser)
	f.tasks.tasks = brokenTaskRepo{}

	_, err := f.tasks.ListOwnTasks(context.Background(), actor, TaskQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBroken)
	_, expected := models.Message(err)
	assert.False(t, expected)
}
