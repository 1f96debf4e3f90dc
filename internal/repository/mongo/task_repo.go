package mongo

import (
	"context"
	"fmt"

	"github.com/vedran77/taskmate/internal/domain"
	"github.com/vedran77/taskmate/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskRepo struct {
	coll *mongo.Collection
}

func NewTaskRepo(db *mongo.Database) *TaskRepo {
	return &TaskRepo{coll: db.Collection(tasksCollection)}
}

func ownerScoped(id primitive.ObjectID, ownerID string) bson.M {
	return bson.M{"_id": id, "userId": ownerID}
}

func (r *TaskRepo) Create(ctx context.Context, task *domain.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"userId": ownerID})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	tasks := []domain.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepo) Update(ctx context.Context, id primitive.ObjectID, ownerID string, update domain.TaskUpdate) (bool, error) {
	filter := ownerScoped(id, ownerID)

	// $set with an empty document is rejected by the server.
	if update.IsEmpty() {
		n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
		if err != nil {
			return false, fmt.Errorf("matching task: %w", err)
		}
		return n > 0, nil
	}

	set := bson.M{}
	for field, val := range update.Fields() {
		set[field] = val
	}

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("updating task: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id primitive.ObjectID, ownerID string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, ownerScoped(id, ownerID))
	if err != nil {
		return false, fmt.Errorf("deleting task: %w", err)
	}
	return res.DeletedCount > 0, nil
}
