package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/repository"
)

type TaskRepository struct {
	s *Store
}

func (r *TaskRepository) Create(_ context.Context, t *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.tasks[t.ID]; taken {
		return models.ErrAlreadyExists
	}
	r.s.tasks[t.ID] = &record[models.Task]{seq: r.s.next(), val: *cloneTask(*t)}
	return nil
}

func (r *TaskRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneTask(rec.val), nil
}

func (r *TaskRepository) List(_ context.Context, f repository.ListFilter) ([]*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if f.Scope.Empty() {
		return []*models.Task{}, nil
	}
	recs := make([]*record[models.Task], 0)
	for _, rec := range r.s.tasks {
		if matches(&rec.val, f) {
			recs = append(recs, rec)
		}
	}

	less := lessFunc(f.Sort, f.Desc)
	sort.SliceStable(recs, func(i, j int) bool {
		if c := less(&recs[i].val, &recs[j].val); c != 0 {
			return c < 0
		}
		return recs[i].seq < recs[j].seq
	})

	tasks := make([]*models.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, cloneTask(rec.val))
	}
	return tasks, nil
}

func matches(t *models.Task, f repository.ListFilter) bool {
	if !f.Scope.Includes(t.AssignedTo) {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || t.DueDate.After(*f.DueBefore)) {
		return false
	}
	return true
}

// lessFunc returns a three-way comparison for the sort field. Missing due
// dates order last ascending and first descending, as Postgres does.
func lessFunc(field repository.SortField, desc bool) func(a, b *models.Task) int {
	var cmp func(a, b *models.Task) int
	switch field {
	case repository.SortTitle:
		cmp = func(a, b *models.Task) int { return strings.Compare(a.Title, b.Title) }
	case repository.SortDueDate:
		cmp = func(a, b *models.Task) int {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
			return a.DueDate.Compare(*b.DueDate)
		}
	case repository.SortPriority:
		cmp = func(a, b *models.Task) int { return a.Priority.Rank() - b.Priority.Rank() }
	case repository.SortStatus:
		cmp = func(a, b *models.Task) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case repository.SortUpdatedAt:
		cmp = func(a, b *models.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case repository.SortCreatedAt:
		cmp = func(a, b *models.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return func(a, b *models.Task) int { return 0 }
	}
	if desc {
		return func(a, b *models.Task) int { return -cmp(a, b) }
	}
	return cmp
}

func (r *TaskRepository) Update(_ context.Context, id uuid.UUID, owner *uuid.UUID, patch models.TaskPatch, now time.Time) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.tasks[id]
	if !ok || (owner != nil && rec.val.AssignedTo != *owner) {
		return nil, models.ErrNotFound
	}
	patch.Apply(&rec.val)
	rec.val.UpdatedAt = now
	return cloneTask(rec.val), nil
}

func (r *TaskRepository) Delete(_ context.Context, id uuid.UUID, owner *uuid.UUID) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.tasks[id]
	if !ok || (owner != nil && rec.val.AssignedTo != *owner) {
		return nil, models.ErrNotFound
	}
	delete(r.s.tasks, id)
	return cloneTask(rec.val), nil
}

func (r *TaskRepository) Analytics(_ context.Context, f repository.AnalyticsFilter, now time.Time) ([]models.TaskAnalytics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]models.TaskAnalytics, 0)
	if f.Scope.Empty() {
		return rows, nil
	}

	byUser := make(map[uuid.UUID]*models.TaskAnalytics)
	for _, rec := range r.s.tasks {
		t := &rec.val
		if !f.Scope.Includes(t.AssignedTo) {
			continue
		}
		row, ok := byUser[t.AssignedTo]
		if !ok {
			row = &models.TaskAnalytics{UserID: t.AssignedTo}
			if u, found := r.s.users[t.AssignedTo]; found {
				row.User = u.val.Username
			}
			byUser[t.AssignedTo] = row
		}
		row.TotalTasks++
		switch t.Status {
		case models.TaskStatusCompleted:
			row.CompletedTasks++
		case models.TaskStatusPending:
			row.PendingTasks++
			if t.IsOverdue(now) {
				row.OverdueTasks++
			}
		}
	}

	for _, row := range byUser {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].User != rows[j].User {
			return rows[i].User < rows[j].User
		}
		return rows[i].UserID.String() < rows[j].UserID.String()
	})
	return rows, nil
}
