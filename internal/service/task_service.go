// internal/service/task_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gurkanbulca/taskhub/internal/access"
	"github.com/gurkanbulca/taskhub/internal/events"
	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/repository"
)

// Task assignment messages.
const (
	MsgTitleRequired        = "Title is required"
	MsgAssignOutsideTeam    = "You can only assign tasks within your team"
	MsgNotManagingTeam      = "You are not managing any team."
	MsgUpdateOutsideTeam    = "You can only update tasks for your team members."
	MsgTaskUpdatesRequired  = "Task ID and updates are required"
	MsgAssignFieldsRequired = "Task ID and assignee are required"
)

// CreateTaskInput is the payload of CreateTask. Empty enum fields take defaults.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    string
	Status      string
}

// TaskUpdate carries the fields a caller asked to change. Nil means unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *string
	Status      *string
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.DueDate == nil && u.Priority == nil && u.Status == nil
}

func (u TaskUpdate) patch() (models.TaskPatch, error) {
	p := models.TaskPatch{Description: u.Description, DueDate: u.DueDate}
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return p, models.BadRequest(MsgTitleRequired)
		}
		p.Title = &title
	}
	if u.Priority != nil {
		pr, err := models.ParsePriority(*u.Priority)
		if err != nil {
			return p, models.BadRequest(err.Error())
		}
		p.Priority = &pr
	}
	if u.Status != nil {
		st, err := models.ParseTaskStatus(*u.Status)
		if err != nil {
			return p, models.BadRequest(err.Error())
		}
		p.Status = &st
	}
	return p, nil
}

// TaskQuery filters and orders task lists. String fields are raw client values.
type TaskQuery struct {
	Status    string
	Priority  string
	DueBefore *time.Time
	SortField string
	SortOrder string
}

func (q TaskQuery) filter(scope repository.Scope) (repository.ListFilter, error) {
	f := repository.ListFilter{Scope: scope, DueBefore: q.DueBefore, Desc: repository.ParseSortOrder(q.SortOrder)}
	if q.Status != "" {
		st, err := models.ParseTaskStatus(q.Status)
		if err != nil {
			return f, models.BadRequest(err.Error())
		}
		f.Status = &st
	}
	if q.Priority != "" {
		p, err := models.ParsePriority(q.Priority)
		if err != nil {
			return f, models.BadRequest(err.Error())
		}
		f.Priority = &p
	}
	sort, err := repository.ParseSortField(q.SortField)
	if err != nil {
		return f, models.BadRequest(err.Error())
	}
	f.Sort = sort
	return f, nil
}

// TaskService implements the task lifecycle and the assignment rules.
type TaskService struct {
	tasks     repository.TaskRepository
	users     repository.UserRepository
	teams     repository.TeamRepository
	publisher events.Publisher
	log       *zap.SugaredLogger
	now       Clock
}

func NewTaskService(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	teams repository.TeamRepository,
	publisher events.Publisher,
	log *zap.SugaredLogger,
) *TaskService {
	return &TaskService{
		tasks:     tasks,
		users:     users,
		teams:     teams,
		publisher: publisher,
		log:       log.Named("service.task"),
		now:       systemClock,
	}
}

// CreateTask creates a task owned by the actor. Assigner and assignee are
// always the actor.
func (s *TaskService) CreateTask(ctx context.Context, actor *models.Actor, in CreateTaskInput) (*models.Task, error) {
	if err := access.Authorize(actor, access.OpCreateTask); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.BadRequest(MsgTitleRequired)
	}

	priority := models.PriorityMedium
	if in.Priority != "" {
		p, err := models.ParsePriority(in.Priority)
		if err != nil {
			return nil, models.BadRequest(err.Error())
		}
		priority = p
	}
	status := models.TaskStatusPending
	if in.Status != "" {
		st, err := models.ParseTaskStatus(in.Status)
		if err != nil {
			return nil, models.BadRequest(err.Error())
		}
		status = st
	}

	now := s.now()
	task := &models.Task{
		ID:          uuid.New(),
		Title:       title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    priority,
		Status:      status,
		AssignedBy:  actor.ID,
		AssignedTo:  actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// ListOwnTasks returns the tasks assigned to the actor.
func (s *TaskService) ListOwnTasks(ctx context.Context, actor *models.Actor, q TaskQuery) ([]*models.Task, error) {
	if err := access.Authorize(actor, access.OpListOwnTasks); err != nil {
		return nil, err
	}
	f, err := q.filter(repository.AssignedTo(actor.ID))
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateOwnTask changes a task assigned to the actor. Tasks owned by anyone
// else are reported as not found, whatever the actor's role.
func (s *TaskService) UpdateOwnTask(ctx context.Context, actor *models.Actor, taskID string, upd TaskUpdate) (*models.Task, error) {
	if err := access.Authorize(actor, access.OpUpdateOwnTask); err != nil {
		return nil, err
	}
	id, ok := parseID(taskID)
	if !ok {
		return nil, models.NotFound(MsgTaskNotFound)
	}
	patch, err := upd.patch()
	if err != nil {
		return nil, err
	}

	owner := actor.ID
	task, err := s.tasks.Update(ctx, id, &owner, patch, s.now())
	if err != nil {
		return nil, notFound(err, MsgTaskNotFound, "update task")
	}
	s.publish(ctx, task)
	return task, nil
}

// DeleteOwnTask removes a task assigned to the actor.
func (s *TaskService) DeleteOwnTask(ctx context.Context, actor *models.Actor, taskID string) (*models.Task, error) {
	if err := access.Authorize(actor, access.OpDeleteOwnTask); err != nil {
		return nil, err
	}
	id, ok := parseID(taskID)
	if !ok {
		return nil, models.NotFound(MsgTaskNotFound)
	}

	owner := actor.ID
	task, err := s.tasks.Delete(ctx, id, &owner)
	if err != nil {
		return nil, notFound(err, MsgTaskNotFound, "delete task")
	}
	return task, nil
}

// ListAllTasks lists tasks across users. Admins see everything; managers see
// the tasks of their team members, and nothing when they manage no team.
func (s *TaskService) ListAllTasks(ctx context.Context, actor *models.Actor, q TaskQuery) ([]*models.TaskView, error) {
	if err := access.Authorize(actor, access.OpListAllTasks); err != nil {
		return nil, err
	}

	scope := repository.Unscoped()
	if actor.Role == models.RoleManager {
		team, err := managedTeam(ctx, s.teams, actor.ID)
		if err != nil {
			return nil, err
		}
		if team == nil {
			scope = repository.AssignedTo()
		} else {
			scope = repository.AssignedTo(team.MemberIDs()...)
		}
	}

	f, err := q.filter(scope)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return s.views(ctx, tasks)
}

// AssignTask moves a task to another user. Task and assignee are loaded
// concurrently and both must exist before the team check runs.
func (s *TaskService) AssignTask(ctx context.Context, actor *models.Actor, taskID, assigneeID string) (*models.Task, error) {
	if err := access.Authorize(actor, access.OpAssignTask); err != nil {
		return nil, err
	}
	if strings.TrimSpace(taskID) == "" || strings.TrimSpace(assigneeID) == "" {
		return nil, models.BadRequest(MsgAssignFieldsRequired)
	}

	var (
		task     *models.Task
		assignee *models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, ok := parseID(taskID)
		if !ok {
			return nil
		}
		t, err := s.tasks.GetByID(gctx, id)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("get task: %w", err)
		}
		task = t
		return nil
	})
	g.Go(func() error {
		id, ok := parseID(assigneeID)
		if !ok {
			return nil
		}
		u, err := s.users.GetByID(gctx, id)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("get assignee: %w", err)
		}
		assignee = u
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if task == nil {
		return nil, models.NotFound(MsgTaskNotFound)
	}
	if assignee == nil {
		return nil, models.NotFound(MsgUserNotFound)
	}

	if actor.Role == models.RoleManager {
		team, err := managedTeam(ctx, s.teams, actor.ID)
		if err != nil {
			return nil, err
		}
		if !team.HasMember(assignee.ID) {
			return nil, models.Forbidden(MsgAssignOutsideTeam)
		}
	}

	updated, err := s.tasks.Update(ctx, task.ID, nil, models.TaskPatch{AssignedTo: &assignee.ID}, s.now())
	if err != nil {
		return nil, notFound(err, MsgTaskNotFound, "assign task")
	}
	s.log.Infow("task assigned", "task_id", updated.ID, "assigned_to", assignee.ID, "by", actor.ID)
	s.publish(ctx, updated)
	return updated, nil
}

// UpdateTaskForUser lets an admin change any task and a manager change tasks
// currently assigned to a member of their team.
func (s *TaskService) UpdateTaskForUser(ctx context.Context, actor *models.Actor, taskID string, upd TaskUpdate) (*models.Task, error) {
	if err := access.Authorize(actor, access.OpUpdateTaskForUser); err != nil {
		return nil, err
	}
	if strings.TrimSpace(taskID) == "" || upd.IsEmpty() {
		return nil, models.BadRequest(MsgTaskUpdatesRequired)
	}
	patch, err := upd.patch()
	if err != nil {
		return nil, err
	}

	id, ok := parseID(taskID)
	if !ok {
		return nil, models.NotFound(MsgTaskNotFound)
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, MsgTaskNotFound, "get task")
	}

	var owner *uuid.UUID
	if actor.Role == models.RoleManager {
		team, err := managedTeam(ctx, s.teams, actor.ID)
		if err != nil {
			return nil, err
		}
		if team == nil {
			return nil, models.Forbidden(MsgNotManagingTeam)
		}
		if !team.HasMember(task.AssignedTo) {
			return nil, models.Forbidden(MsgUpdateOutsideTeam)
		}
		// Guard against a reassignment between the check and the write.
		owner = &task.AssignedTo
	}

	updated, err := s.tasks.Update(ctx, id, owner, patch, s.now())
	if err != nil {
		return nil, notFound(err, MsgTaskNotFound, "update task")
	}
	s.publish(ctx, updated)
	return updated, nil
}

func (s *TaskService) publish(ctx context.Context, t *models.Task) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, events.Event{Name: events.TaskUpdated, Task: *t})
}

// views populates assignee and assigner with one user lookup.
func (s *TaskService) views(ctx context.Context, tasks []*models.Task) ([]*models.TaskView, error) {
	ids := make([]uuid.UUID, 0, 2*len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.AssignedTo, t.AssignedBy)
	}
	byID, err := summaries(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*models.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, &models.TaskView{
			Task:     *t,
			Assignee: byID[t.AssignedTo],
			Assigner: byID[t.AssignedBy],
		})
	}
	return views, nil
}
