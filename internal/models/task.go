package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task. Any status may follow any other.
type TaskStatus string

// Task status constants
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusOnHold     TaskStatus = "on-hold"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOnHold, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseTaskStatus converts a raw string into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid status %q: must be one of pending, in-progress, completed, on-hold, cancelled", s)
	}
	return st, nil
}

// Priority is the urgency of a task.
type Priority string

// Priority constants
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank orders priorities from low to high.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// ParsePriority converts a raw string into a Priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority %q: must be one of low, medium, high", s)
	}
	return p, nil
}

// Task is a unit of work assigned to a single user.
type Task struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	DueDate     *time.Time `db:"due_date" json:"dueDate,omitempty"`
	Priority    Priority   `db:"priority" json:"priority"`
	Status      TaskStatus `db:"status" json:"status"`
	AssignedBy  uuid.UUID  `db:"assigned_by" json:"assignedBy"`
	AssignedTo  uuid.UUID  `db:"assigned_to" json:"assignedTo"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsOverdue reports whether a pending task is past its due date at now.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status == TaskStatusPending && t.DueDate != nil && t.DueDate.Before(now)
}

// TaskPatch holds the fields a task update may change. Nil means unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *Priority
	Status      *TaskStatus
	AssignedTo  *uuid.UUID
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Priority == nil && p.Status == nil && p.AssignedTo == nil
}

// Apply copies the set fields onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
}

// TaskView is a task with assignee and assigner populated.
type TaskView struct {
	Task
	Assignee *UserSummary `json:"assignee,omitempty"`
	Assigner *UserSummary `json:"assigner,omitempty"`
}

// TaskAnalytics is the per-assignee rollup returned by the analytics query.
type TaskAnalytics struct {
	UserID         uuid.UUID `db:"user_id" json:"userId"`
	User           string    `db:"username" json:"user"`
	TotalTasks     int       `db:"total_tasks" json:"totalTasks"`
	CompletedTasks int       `db:"completed_tasks" json:"completedTasks"`
	PendingTasks   int       `db:"pending_tasks" json:"pendingTasks"`
	OverdueTasks   int       `db:"overdue_tasks" json:"overdueTasks"`
}
