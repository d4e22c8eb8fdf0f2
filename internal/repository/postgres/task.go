package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/repository"
)

const (
	tasksTable = "tasks"

	insertTaskQuery = `INSERT INTO tasks (id, title, description, due_date, priority, status, assigned_by, assigned_to, created_at, updated_at)
VALUES (:id, :title, :description, :due_date, :priority, :status, :assigned_by, :assigned_to, :created_at, :updated_at)`

	priorityRank = "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 END"

	analyticsQuery = `SELECT t.assigned_to AS user_id,
       COALESCE(u.username, '') AS username,
       COUNT(*) AS total_tasks,
       COUNT(*) FILTER (WHERE t.status = 'completed') AS completed_tasks,
       COUNT(*) FILTER (WHERE t.status = 'pending') AS pending_tasks,
       COUNT(*) FILTER (WHERE t.status = 'pending' AND t.due_date < $1) AS overdue_tasks
FROM tasks t
LEFT JOIN users u ON u.id = t.assigned_to`
	analyticsScope   = `WHERE t.assigned_to = ANY($2::uuid[])`
	analyticsGroupBy = `GROUP BY t.assigned_to, u.username ORDER BY username, t.assigned_to`
)

var taskColumns = []string{
	"id", "title", "description", "due_date", "priority", "status",
	"assigned_by", "assigned_to", "created_at", "updated_at",
}

type TaskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

func returning() string {
	return " RETURNING " + strings.Join(taskColumns, ", ")
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	if _, err := r.db.NamedExecContext(ctx, insertTaskQuery, t); err != nil {
		return mapError("insert task", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query, args := builder().
		Select(taskColumns...).
		From(entsql.Table(tasksTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var t models.Task
	if err := r.db.GetContext(ctx, &t, query, args...); err != nil {
		return nil, mapError("get task", err)
	}
	return &t, nil
}

func (r *TaskRepository) List(ctx context.Context, f repository.ListFilter) ([]*models.Task, error) {
	tasks := make([]*models.Task, 0)
	if f.Scope.Empty() {
		return tasks, nil
	}

	query, args := listSelector(f).Query()
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, mapError("list tasks", err)
	}
	return tasks, nil
}

func listSelector(f repository.ListFilter) *entsql.Selector {
	sel := builder().Select(taskColumns...).From(entsql.Table(tasksTable))

	var preds []*entsql.Predicate
	if f.Scope.Scoped {
		preds = append(preds, entsql.In("assigned_to", uuidArgs(f.Scope.Assignees)...))
	}
	if f.Status != nil {
		preds = append(preds, entsql.EQ("status", string(*f.Status)))
	}
	if f.Priority != nil {
		preds = append(preds, entsql.EQ("priority", string(*f.Priority)))
	}
	if f.DueBefore != nil {
		preds = append(preds, entsql.LTE("due_date", *f.DueBefore))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}

	switch f.Sort {
	case repository.SortNone:
		sel.OrderBy("created_at", "id")
	case repository.SortPriority:
		dir := " ASC"
		if f.Desc {
			dir = " DESC"
		}
		sel.OrderExpr(entsql.ExprP(priorityRank + dir))
		sel.OrderBy("created_at")
	default:
		if f.Desc {
			sel.OrderBy(entsql.Desc(f.Sort.Column()))
		} else {
			sel.OrderBy(entsql.Asc(f.Sort.Column()))
		}
		sel.OrderBy("created_at")
	}
	return sel
}

func (r *TaskRepository) Update(ctx context.Context, id uuid.UUID, owner *uuid.UUID, patch models.TaskPatch, now time.Time) (*models.Task, error) {
	upd := builder().Update(tasksTable).Set("updated_at", now)
	if patch.Title != nil {
		upd.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		upd.Set("description", *patch.Description)
	}
	if patch.DueDate != nil {
		upd.Set("due_date", *patch.DueDate)
	}
	if patch.Priority != nil {
		upd.Set("priority", string(*patch.Priority))
	}
	if patch.Status != nil {
		upd.Set("status", string(*patch.Status))
	}
	if patch.AssignedTo != nil {
		upd.Set("assigned_to", *patch.AssignedTo)
	}
	upd.Where(guard(id, owner))

	query, args := upd.Query()
	var t models.Task
	if err := r.db.GetContext(ctx, &t, query+returning(), args...); err != nil {
		return nil, mapError("update task", err)
	}
	return &t, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*models.Task, error) {
	query, args := builder().Delete(tasksTable).Where(guard(id, owner)).Query()

	var t models.Task
	if err := r.db.GetContext(ctx, &t, query+returning(), args...); err != nil {
		return nil, mapError("delete task", err)
	}
	return &t, nil
}

func (r *TaskRepository) Analytics(ctx context.Context, f repository.AnalyticsFilter, now time.Time) ([]models.TaskAnalytics, error) {
	rows := make([]models.TaskAnalytics, 0)
	if f.Scope.Empty() {
		return rows, nil
	}

	query := analyticsQuery
	args := []any{now}
	if f.Scope.Scoped {
		query += "\n" + analyticsScope
		args = append(args, uuidArray(f.Scope.Assignees))
	}
	query += "\n" + analyticsGroupBy

	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("task analytics: %w", err)
	}
	return rows, nil
}

func guard(id uuid.UUID, owner *uuid.UUID) *entsql.Predicate {
	if owner == nil {
		return entsql.EQ("id", id)
	}
	return entsql.And(entsql.EQ("id", id), entsql.EQ("assigned_to", *owner))
}

func uuidArgs(ids []uuid.UUID) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, id)
	}
	return out
}
