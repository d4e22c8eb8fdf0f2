package rest

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gurkanbulca/taskhub/internal/middleware"
	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/service"
)

const msgInvalidDueDate = "Invalid dueDate"

// dateLayouts are the accepted dueDate formats, tried in order.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, models.BadRequest(msgInvalidDueDate)
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

type taskFields struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

func (f *taskFields) update() (service.TaskUpdate, error) {
	if f == nil {
		return service.TaskUpdate{}, nil
	}
	upd := service.TaskUpdate{
		Title:       f.Title,
		Description: f.Description,
		Priority:    f.Priority,
		Status:      f.Status,
	}
	if f.DueDate != nil {
		due, err := parseDate(*f.DueDate)
		if err != nil {
			return upd, err
		}
		if due == nil {
			return upd, models.BadRequest(msgInvalidDueDate)
		}
		upd.DueDate = due
	}
	return upd, nil
}

type updateTaskRequest struct {
	TaskID string `json:"taskId"`
	taskFields
}

type deleteTaskRequest struct {
	TaskID string `json:"taskId"`
}

type assignTaskRequest struct {
	TaskID     string `json:"taskId"`
	AssignedTo string `json:"assignedTo"`
}

type updateTaskForUserRequest struct {
	TaskID  string      `json:"taskId"`
	Updates *taskFields `json:"updates"`
}

func taskQuery(c *fiber.Ctx) (service.TaskQuery, error) {
	due, err := parseDate(c.Query("dueDate"))
	if err != nil {
		return service.TaskQuery{}, err
	}
	return service.TaskQuery{
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		DueBefore: due,
		SortField: c.Query("sortField"),
		SortOrder: c.Query("sortOrder"),
	}, nil
}

// CreateTask creates a task assigned to the caller.
func (h *Handler) CreateTask(c *fiber.Ctx) error {
	var body createTaskRequest
	if err := c.BodyParser(&body); err != nil {
		return models.BadRequest(msgInvalidBody)
	}
	due, err := parseDate(body.DueDate)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	task, err := h.svc.Tasks.CreateTask(ctx, middleware.ActorFromContext(ctx), service.CreateTaskInput{
		Title:       body.Title,
		Description: body.Description,
		DueDate:     due,
		Priority:    body.Priority,
		Status:      body.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Task created successfully",
		"task":    task,
	})
}

// GetTasks lists the caller's own tasks.
func (h *Handler) GetTasks(c *fiber.Ctx) error {
	q, err := taskQuery(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	tasks, err := h.svc.Tasks.ListOwnTasks(ctx, middleware.ActorFromContext(ctx), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "tasks": tasks})
}

// UpdateTask changes one of the caller's own tasks.
func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	var body updateTaskRequest
	if err := c.BodyParser(&body); err != nil {
		return models.BadRequest(msgInvalidBody)
	}
	upd, err := body.taskFields.update()
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	task, err := h.svc.Tasks.UpdateOwnTask(ctx, middleware.ActorFromContext(ctx), body.TaskID, upd)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Task updated successfully",
		"task":    task,
	})
}

// DeleteTask removes one of the caller's own tasks.
func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	var body deleteTaskRequest
	if err := c.BodyParser(&body); err != nil {
		return models.BadRequest(msgInvalidBody)
	}

	ctx := c.UserContext()
	if _, err := h.svc.Tasks.DeleteOwnTask(ctx, middleware.ActorFromContext(ctx), body.TaskID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Task deleted successfully"})
}

// GetAllTasks lists tasks across users within the caller's reach.
func (h *Handler) GetAllTasks(c *fiber.Ctx) error {
	q, err := taskQuery(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	tasks, err := h.svc.Tasks.ListAllTasks(ctx, middleware.ActorFromContext(ctx), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "tasks": tasks})
}

// AssignTask reassigns a task.
func (h *Handler) AssignTask(c *fiber.Ctx) error {
	var body assignTaskRequest
	if err := c.BodyParser(&body); err != nil {
		return models.BadRequest(msgInvalidBody)
	}

	ctx := c.UserContext()
	task, err := h.svc.Tasks.AssignTask(ctx, middleware.ActorFromContext(ctx), body.TaskID, body.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Task assigned successfully",
		"task":    task,
	})
}

// UpdateTaskForUser changes a task on behalf of its assignee.
func (h *Handler) UpdateTaskForUser(c *fiber.Ctx) error {
	var body updateTaskForUserRequest
	if err := c.BodyParser(&body); err != nil {
		return models.BadRequest(msgInvalidBody)
	}
	upd, err := body.Updates.update()
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	task, err := h.svc.Tasks.UpdateTaskForUser(ctx, middleware.ActorFromContext(ctx), body.TaskID, upd)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Task updated successfully.",
		"task":    task,
	})
}

// TaskAnalytics returns per-assignee task counts.
func (h *Handler) TaskAnalytics(c *fiber.Ctx) error {
	ctx := c.UserContext()
	rows, err := h.svc.Analytics.GetTaskAnalytics(ctx, middleware.ActorFromContext(ctx), service.AnalyticsQuery{
		UserID: c.Query("userId"),
		TeamID: c.Query("teamId"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Task analytics fetched successfully",
		"data":    rows,
	})
}
