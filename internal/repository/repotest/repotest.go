// Package repotest holds behaviour checks shared by every repository
// implementation.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/taskmate/internal/domain"
	"github.com/vedran77/taskmate/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Suffix makes identities unique per run so shared databases can be reused.
func Suffix() string {
	return primitive.NewObjectID().Hex()
}

func TaskRepository(t *testing.T, repo repository.TaskRepository) {
	t.Helper()
	ctx := context.Background()
	owner := "owner-" + Suffix() + "@x.com"
	other := "other-" + Suffix() + "@x.com"

	task := &domain.Task{
		UserID:    owner,
		Title:     "Buy milk",
		Category:  domain.DefaultCategory,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.Create(ctx, task))
	require.False(t, task.ID.IsZero())

	t.Run("list is owner scoped", func(t *testing.T) {
		tasks, err := repo.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, task.ID, tasks[0].ID)
		assert.True(t, task.CreatedAt.Equal(tasks[0].CreatedAt))

		foreign, err := repo.ListByOwner(ctx, other)
		require.NoError(t, err)
		assert.NotNil(t, foreign)
		assert.Empty(t, foreign)
	})

	t.Run("foreign update does not match", func(t *testing.T) {
		title := "hijacked"
		matched, err := repo.Update(ctx, task.ID, other, domain.TaskUpdate{Title: &title})
		require.NoError(t, err)
		assert.False(t, matched)

		matched, err = repo.Update(ctx, task.ID, other, domain.TaskUpdate{})
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("owner update merges fields", func(t *testing.T) {
		title := "Buy oat milk"
		matched, err := repo.Update(ctx, task.ID, owner, domain.TaskUpdate{Title: &title})
		require.NoError(t, err)
		assert.True(t, matched)

		matched, err = repo.Update(ctx, task.ID, owner, domain.TaskUpdate{})
		require.NoError(t, err)
		assert.True(t, matched)

		tasks, err := repo.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Buy oat milk", tasks[0].Title)
		assert.Equal(t, domain.DefaultCategory, tasks[0].Category)
		assert.Equal(t, owner, tasks[0].UserID)
	})

	t.Run("unknown id does not match", func(t *testing.T) {
		matched, err := repo.Update(ctx, primitive.NewObjectID(), owner, domain.TaskUpdate{})
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("delete is owner scoped", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, task.ID, other)
		require.NoError(t, err)
		assert.False(t, deleted)

		deleted, err = repo.Delete(ctx, task.ID, owner)
		require.NoError(t, err)
		assert.True(t, deleted)

		tasks, err := repo.ListByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}

func UserRepository(t *testing.T, repo repository.UserRepository) {
	t.Helper()
	ctx := context.Background()
	email := "user-" + Suffix() + "@x.com"

	missing, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Nil(t, missing)

	user := &domain.User{
		Email:     email,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		Profile:   map[string]any{"name": "Ada"},
	}
	require.NoError(t, repo.Create(ctx, user))
	require.False(t, user.ID.IsZero())

	found, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "Ada", found.Profile["name"])

	err = repo.Create(ctx, &domain.User{Email: email})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	var seen bool
	for _, u := range users {
		if u.Email == email {
			seen = true
		}
	}
	assert.True(t, seen)
}
