package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vedran77/taskmate/internal/domain"
	"github.com/vedran77/taskmate/internal/repository"
	"github.com/vedran77/taskmate/pkg/validator"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterResult mirrors an insert acknowledgement. InsertedID is nil when
// the email was already registered.
type RegisterResult struct {
	Acknowledged bool                `json:"acknowledged,omitempty"`
	Message      string              `json:"message,omitempty"`
	InsertedID   *primitive.ObjectID `json:"insertedId"`
}

func existingUser() *RegisterResult {
	return &RegisterResult{Message: "User already exists"}
}

// Register inserts the user unless the email is taken. Re-registering is
// not an error.
func (s *UserService) Register(ctx context.Context, user *domain.User) (*RegisterResult, error) {
	user.Email = strings.TrimSpace(user.Email)
	if errs := validator.ValidateEmail(user.Email); errs.HasErrors() {
		return nil, errs
	}

	existing, err := s.userRepo.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existingUser(), nil
	}

	user.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a concurrent registration race; the unique index caught it
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.Info("duplicate registration rejected by store", "email", user.Email)
			return existingUser(), nil
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", "email", user.Email, "user_id", user.ID.Hex())
	return &RegisterResult{Acknowledged: true, InsertedID: &user.ID}, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.List(ctx)
}
