package models

import (
	"time"

	"github.com/google/uuid"
)

// Team groups users under a single manager.
type Team struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	ManagerID uuid.UUID    `db:"manager_id" json:"managerId"`
	Members   []TeamMember `db:"-" json:"members"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}

// TeamMember is a membership entry of a team.
type TeamMember struct {
	UserID  uuid.UUID `db:"user_id" json:"user"`
	AddedAt time.Time `db:"added_at" json:"addedAt"`
}

// HasMember reports whether userID belongs to the team.
func (t *Team) HasMember(userID uuid.UUID) bool {
	if t == nil {
		return false
	}
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the ids of all team members.
func (t *Team) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Members))
	for _, m := range t.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// TeamView is a team with its manager and members populated.
type TeamView struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Manager   *UserSummary     `json:"manager"`
	Members   []TeamMemberView `json:"members"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// TeamMemberView is a populated membership entry.
type TeamMemberView struct {
	User    *UserSummary `json:"user"`
	AddedAt time.Time    `json:"addedAt"`
}
