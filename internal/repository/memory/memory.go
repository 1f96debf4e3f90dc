// Package memory is a process-local store used for development and tests.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/vedran77/taskmate/internal/domain"
	"github.com/vedran77/taskmate/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu    sync.RWMutex
	users []domain.User
	tasks map[primitive.ObjectID]domain.Task
}

func NewStore() *Store {
	return &Store{tasks: make(map[primitive.ObjectID]domain.Task)}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type UserRepo struct{ s *Store }

func NewUserRepo(s *Store) *UserRepo {
	return &UserRepo{s: s}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}

	user.ID = primitive.NewObjectID()
	stored := *user
	stored.Profile = maps.Clone(user.Profile)
	r.s.users = append(r.s.users, stored)
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			found := u
			found.Profile = maps.Clone(u.Profile)
			return &found, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]domain.User, len(r.s.users))
	for i, u := range r.s.users {
		users[i] = u
		users[i].Profile = maps.Clone(u.Profile)
	}
	return users, nil
}

type TaskRepo struct{ s *Store }

func NewTaskRepo(s *Store) *TaskRepo {
	return &TaskRepo{s: s}
}

func (r *TaskRepo) Create(ctx context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if _, ok := r.s.tasks[task.ID]; ok {
		return repository.ErrDuplicate
	}
	r.s.tasks[task.ID] = *task
	return nil
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tasks := []domain.Task{}
	for _, t := range r.s.tasks {
		if t.UserID == ownerID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID.Hex() < tasks[j].ID.Hex()
	})
	return tasks, nil
}

func (r *TaskRepo) Update(ctx context.Context, id primitive.ObjectID, ownerID string, update domain.TaskUpdate) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok || t.UserID != ownerID {
		return false, nil
	}
	update.Apply(&t)
	r.s.tasks[id] = t
	return true, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id primitive.ObjectID, ownerID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok || t.UserID != ownerID {
		return false, nil
	}
	delete(r.s.tasks, id)
	return true, nil
}
