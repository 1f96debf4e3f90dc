package repository

import (
	"context"
	"errors"

	"github.com/vedran77/taskmate/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrDuplicate is returned when a write violates a unique index.
var ErrDuplicate = errors.New("duplicate record")

type UserRepository interface {
	// Create assigns user.ID and persists the user.
	Create(ctx context.Context, user *domain.User) error
	// GetByEmail returns nil, nil when no user has the email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// TaskRepository scopes every mutation to (id, ownerID). A task owned by
// someone else behaves exactly like a missing one.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	// Update reports whether a task matched (id, ownerID). An empty update
	// only checks for the match.
	Update(ctx context.Context, id primitive.ObjectID, ownerID string, update domain.TaskUpdate) (bool, error)
	// Delete reports whether a task was removed.
	Delete(ctx context.Context, id primitive.ObjectID, ownerID string) (bool, error)
}
