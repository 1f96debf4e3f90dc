package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vedran77/taskmate/internal/domain"
	"github.com/vedran77/taskmate/internal/repository"
	"github.com/vedran77/taskmate/pkg/validator"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrTaskNotFound covers both a missing task and one owned by someone
	// else; callers must not be able to tell them apart.
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidTaskID = errors.New("task id must be a 24 character hex object id")
	ErrForbidden     = errors.New("tasks of another user cannot be listed")
)

// Notifier signals every live session of an identity that its tasks changed.
// Implementations must not block.
type Notifier interface {
	NotifyTasksChanged(identity string)
}

type TaskService struct {
	taskRepo repository.TaskRepository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewTaskService(taskRepo repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *TaskService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type PatchTaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

func ParseTaskID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidTaskID
	}
	return id, nil
}

func (s *TaskService) Create(ctx context.Context, acting string, input CreateTaskInput) (*domain.Task, error) {
	if errs := validator.ValidateTask(&input.Title, &input.Description, nil); errs.HasErrors() {
		return nil, errs
	}

	category := input.Category
	if category == "" {
		category = domain.DefaultCategory
	}

	task := &domain.Task{
		ID:          primitive.NewObjectID(),
		UserID:      acting,
		Title:       input.Title,
		Description: input.Description,
		Category:    category,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.notify(acting)
	return task, nil
}

// List returns the tasks of owner. The acting identity may only list its own.
func (s *TaskService) List(ctx context.Context, acting, owner string) ([]domain.Task, error) {
	if acting != owner {
		return nil, ErrForbidden
	}
	return s.taskRepo.ListByOwner(ctx, owner)
}

// Replace applies a field map to the task. Every supplied field must be a
// mutable task field and pass the create rules.
func (s *TaskService) Replace(ctx context.Context, acting, rawID string, fields map[string]json.RawMessage) error {
	id, err := ParseTaskID(rawID)
	if err != nil {
		return err
	}

	update, errs := decodeFields(fields)
	if errs.HasErrors() {
		return errs
	}

	matched, err := s.taskRepo.Update(ctx, id, acting, update)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if !matched {
		return ErrTaskNotFound
	}

	s.notify(acting)
	return nil
}

func decodeFields(fields map[string]json.RawMessage) (domain.TaskUpdate, validator.ValidationErrors) {
	var update domain.TaskUpdate
	errs := make(validator.ValidationErrors)

	for name, raw := range fields {
		var target **string
		switch name {
		case "title":
			target = &update.Title
		case "description":
			target = &update.Description
		case "category":
			target = &update.Category
		case "_id", "userId", "createdAt":
			errs.Add(name, "Field cannot be changed")
			continue
		default:
			errs.Add(name, "Unknown field")
			continue
		}

		var val string
		if err := json.Unmarshal(raw, &val); err != nil {
			errs.Add(name, "Must be a string")
			continue
		}
		*target = &val
	}

	for f, msg := range validator.ValidateTask(update.Title, update.Description, update.Category) {
		errs.Add(f, msg)
	}
	return update, errs
}

// Patch applies only the fields that pass validation; the rest are dropped
// without an error. It returns the update that was applied.
func (s *TaskService) Patch(ctx context.Context, acting, rawID string, input PatchTaskInput) (domain.TaskUpdate, error) {
	id, err := ParseTaskID(rawID)
	if err != nil {
		return domain.TaskUpdate{}, err
	}

	var update domain.TaskUpdate
	if input.Title != nil && validator.ValidTitle(*input.Title) {
		update.Title = input.Title
	}
	if input.Description != nil && *input.Description != "" && validator.ValidDescription(*input.Description) {
		update.Description = input.Description
	}
	if input.Category != nil && validator.ValidCategory(*input.Category) {
		update.Category = input.Category
	}

	matched, err := s.taskRepo.Update(ctx, id, acting, update)
	if err != nil {
		return domain.TaskUpdate{}, fmt.Errorf("patching task: %w", err)
	}
	if !matched {
		return domain.TaskUpdate{}, ErrTaskNotFound
	}

	s.notify(acting)
	return update, nil
}

// Delete removes the task if acting owns it. A missing or foreign task is
// not an error, and sessions are notified either way.
func (s *TaskService) Delete(ctx context.Context, acting, rawID string) error {
	id, err := ParseTaskID(rawID)
	if err != nil {
		return err
	}

	deleted, err := s.taskRepo.Delete(ctx, id, acting)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if !deleted {
		s.logger.Debug("delete matched no task", "task_id", rawID, "identity", acting)
	}

	s.notify(acting)
	return nil
}

func (s *TaskService) notify(identity string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyTasksChanged(identity)
}
