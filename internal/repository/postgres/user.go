package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/taskhub/internal/models"
)

const (
	userColumns = `id, username, email, password_hash, role, created_at, updated_at`

	insertUserQuery = `INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
VALUES (:id, :username, :email, :password_hash, :role, :created_at, :updated_at)`
	selectUserByIDQuery    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	selectUserByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	selectUsersQuery       = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	selectUsersByIDsQuery  = `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[])`
	updateUserRoleQuery    = `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1 RETURNING ` + userColumns
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)
	if _, err := r.db.NamedExecContext(ctx, insertUserQuery, u); err != nil {
		return mapError("insert user", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.GetContext(ctx, &u, selectUserByIDQuery, id); err != nil {
		return nil, mapError("get user", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.GetContext(ctx, &u, selectUserByEmailQuery, strings.ToLower(email)); err != nil {
		return nil, mapError("get user by email", err)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0)
	if err := r.db.SelectContext(ctx, &users, selectUsersQuery); err != nil {
		return nil, mapError("list users", err)
	}
	return users, nil
}

func (r *UserRepository) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	out := make(map[uuid.UUID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []*models.User
	if err := r.db.SelectContext(ctx, &users, selectUsersByIDsQuery, uuidArray(ids)); err != nil {
		return nil, mapError("get users", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role, now time.Time) (*models.User, error) {
	var u models.User
	if err := r.db.GetContext(ctx, &u, updateUserRoleQuery, id, role, now); err != nil {
		return nil, mapError("update user role", err)
	}
	return &u, nil
}
