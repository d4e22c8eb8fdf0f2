package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskhub/internal/models"
)

type TeamRepository struct {
	s *Store
}

func (r *TeamRepository) Create(_ context.Context, t *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.teams[t.ID]; taken {
		return models.ErrAlreadyExists
	}
	r.s.teams[t.ID] = &record[models.Team]{seq: r.s.next(), val: *cloneTeam(*t)}
	return nil
}

func (r *TeamRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.teams[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneTeam(rec.val), nil
}

func (r *TeamRepository) GetByManager(_ context.Context, managerID uuid.UUID) (*models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *record[models.Team]
	for _, rec := range r.s.teams {
		if rec.val.ManagerID != managerID {
			continue
		}
		if found == nil || earlier(rec, found) {
			found = rec
		}
	}
	if found == nil {
		return nil, models.ErrNotFound
	}
	return cloneTeam(found.val), nil
}

func (r *TeamRepository) List(_ context.Context) ([]*models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	recs := make([]*record[models.Team], 0, len(r.s.teams))
	for _, rec := range r.s.teams {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return earlier(recs[i], recs[j]) })

	teams := make([]*models.Team, 0, len(recs))
	for _, rec := range recs {
		teams = append(teams, cloneTeam(rec.val))
	}
	return teams, nil
}

func earlier(a, b *record[models.Team]) bool {
	if !a.val.CreatedAt.Equal(b.val.CreatedAt) {
		return a.val.CreatedAt.Before(b.val.CreatedAt)
	}
	return a.seq < b.seq
}
