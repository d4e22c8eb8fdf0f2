package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskhub/internal/logger"
	"github.com/gurkanbulca/taskhub/internal/models"
)

func TestAnalyticsService_GetTaskAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	manager := f.user(t, "manager", models.RoleManager)
	alice := f.user(t, "alice", models.RoleUser)
	bob := f.user(t, "bob", models.RoleUser)
	team := f.team(t, "core", manager, alice)

	yesterday := fixedNow.Add(-24 * time.Hour)
	tomorrow := fixedNow.Add(24 * time.Hour)
	_, err := f.tasks.CreateTask(ctx, alice, CreateTaskInput{Title: "late", DueDate: &yesterday})
	require.NoError(t, err)
	_, err = f.tasks.CreateTask(ctx, alice, CreateTaskInput{Title: "late but done", DueDate: &yesterday, Status: "completed"})
	require.NoError(t, err)
	_, err = f.tasks.CreateTask(ctx, alice, CreateTaskInput{Title: "due tomorrow", DueDate: &tomorrow})
	require.NoError(t, err)
	_, err = f.tasks.CreateTask(ctx, bob, CreateTaskInput{Title: "bob's", Status: "in-progress"})
	require.NoError(t, err)

	now := fixedNow
	svc := NewAnalyticsService(f.store.Tasks(), f.store.Teams(), func() time.Time { return now }, logger.Nop())

	rows, err := svc.GetTaskAnalytics(ctx, bob, AnalyticsQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.TaskAnalytics{
		UserID: alice.ID, User: "alice",
		TotalTasks: 3, CompletedTasks: 1, PendingTasks: 2, OverdueTasks: 1,
	}, rows[0])
	assert.Equal(t, models.TaskAnalytics{UserID: bob.ID, User: "bob", TotalTasks: 1}, rows[1])

	t.Run("overdue follows the clock", func(t *testing.T) {
		now = fixedNow.Add(48 * time.Hour)
		defer func() { now = fixedNow }()

		rows, err := svc.GetTaskAnalytics(ctx, alice, AnalyticsQuery{UserID: alice.ID.String()})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 2, rows[0].OverdueTasks)
	})

	t.Run("team scope wins over user", func(t *testing.T) {
		rows, err := svc.GetTaskAnalytics(ctx, alice, AnalyticsQuery{TeamID: team.ID.String(), UserID: bob.ID.String()})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, alice.ID, rows[0].UserID)
	})

	t.Run("unknown team", func(t *testing.T) {
		_, err := svc.GetTaskAnalytics(ctx, alice, AnalyticsQuery{TeamID: uuid.NewString()})
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.EqualError(t, err, MsgTeamNotFound)
	})

	t.Run("malformed user id matches nothing", func(t *testing.T) {
		rows, err := svc.GetTaskAnalytics(ctx, alice, AnalyticsQuery{UserID: "nobody"})
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("team without members", func(t *testing.T) {
		empty := f.team(t, "empty", manager)
		rows, err := svc.GetTaskAnalytics(ctx, alice, AnalyticsQuery{TeamID: empty.ID.String()})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("no role", func(t *testing.T) {
		_, err := svc.GetTaskAnalytics(ctx, &models.Actor{ID: alice.ID}, AnalyticsQuery{})
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}
