package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that can sign in and act on tasks.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Summary returns the public reference view of the user.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     Role      `json:"role,omitempty"`
}

// Actor is the authenticated identity performing an operation.
// Role always comes from a fresh user lookup, never from the session token.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// ActorFromUser builds the actor for an already loaded user.
func ActorFromUser(u *User) *Actor {
	return &Actor{ID: u.ID, Role: u.Role}
}
