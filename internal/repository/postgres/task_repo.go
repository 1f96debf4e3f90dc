package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/taskmate/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) Create(ctx context.Context, task *domain.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		task.ID.Hex(), task.UserID, task.Title, task.Description, task.Category, task.CreatedAt,
	)
	if err != nil {
		return mapError("inserting task", err)
	}
	return nil
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	query := `
		SELECT id, user_id, title, description, category, created_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, mapError("listing tasks", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, mapError("scanning task", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update relies on postgres counting matched rows even when no value
// changes, so an empty update doubles as the match check.
func (r *TaskRepo) Update(ctx context.Context, id primitive.ObjectID, ownerID string, update domain.TaskUpdate) (bool, error) {
	query := `
		UPDATE tasks
		SET title = COALESCE($3, title),
			description = COALESCE($4, description),
			category = COALESCE($5, category)
		WHERE id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query,
		id.Hex(), ownerID, update.Title, update.Description, update.Category,
	)
	if err != nil {
		return false, mapError("updating task", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id primitive.ObjectID, ownerID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id.Hex(), ownerID)
	if err != nil {
		return false, mapError("deleting task", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		t  domain.Task
		id string
	)
	if err := row.Scan(&id, &t.UserID, &t.Title, &t.Description, &t.Category, &t.CreatedAt); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("stored task id %q: %w", id, err)
	}
	t.ID = oid
	return &t, nil
}
