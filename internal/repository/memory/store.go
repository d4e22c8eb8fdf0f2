// Package memory implements the repositories in process memory.
// It backs DB_DRIVER=memory and the service tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskhub/internal/models"
)

// Store holds every collection behind one lock so cross-collection reads
// (analytics joins users) see a consistent snapshot.
type Store struct {
	mu     sync.RWMutex
	seq    uint64
	users  map[uuid.UUID]*record[models.User]
	emails map[string]uuid.UUID
	teams  map[uuid.UUID]*record[models.Team]
	tasks  map[uuid.UUID]*record[models.Task]
}

type record[T any] struct {
	seq uint64
	val T
}

func NewStore() *Store {
	return &Store{
		users:  make(map[uuid.UUID]*record[models.User]),
		emails: make(map[string]uuid.UUID),
		teams:  make(map[uuid.UUID]*record[models.Team]),
		tasks:  make(map[uuid.UUID]*record[models.Task]),
	}
}

func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }
func (s *Store) Teams() *TeamRepository { return &TeamRepository{s: s} }
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }

// next must be called with mu held for writing.
func (s *Store) next() uint64 {
	s.seq++
	return s.seq
}

func cloneTeam(t models.Team) *models.Team {
	members := make([]models.TeamMember, len(t.Members))
	copy(members, t.Members)
	t.Members = members
	return &t
}

func cloneTask(t models.Task) *models.Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return &t
}
