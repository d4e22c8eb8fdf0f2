package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskhub/internal/models"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.emails[u.Email]; taken {
		return models.ErrAlreadyExists
	}
	if _, taken := r.s.users[u.ID]; taken {
		return models.ErrAlreadyExists
	}
	r.s.users[u.ID] = &record[models.User]{seq: r.s.next(), val: *u}
	r.s.emails[u.Email] = u.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	u := rec.val
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	id, ok := r.s.emails[strings.ToLower(email)]
	r.s.mu.RUnlock()
	if !ok {
		return nil, models.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) List(_ context.Context) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	recs := make([]*record[models.User], 0, len(r.s.users))
	for _, rec := range r.s.users {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	users := make([]*models.User, 0, len(recs))
	for _, rec := range recs {
		u := rec.val
		users = append(users, &u)
	}
	return users, nil
}

func (r *UserRepository) GetMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[uuid.UUID]*models.User, len(ids))
	for _, id := range ids {
		if rec, ok := r.s.users[id]; ok {
			u := rec.val
			out[id] = &u
		}
	}
	return out, nil
}

func (r *UserRepository) UpdateRole(_ context.Context, id uuid.UUID, role models.Role, now time.Time) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	rec.val.Role = role
	rec.val.UpdatedAt = now
	u := rec.val
	return &u, nil
}
