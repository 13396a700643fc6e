package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucagrillo/habitgrid/internal/core/domain"
)

func seedHabit(t *testing.T, userID, title string) *domain.Habit {
	t.Helper()

	habit, err := domain.NewHabit(userID, title, "", "#10B981", ".+2d", "1 2 3 4 5", time.Now().UTC(), nil)
	require.NoError(t, err)
	return habit
}

func TestInMemoryHabitRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		repo := NewInMemoryHabitRepository()
		habit := seedHabit(t, "user-1", "Morning run")

		require.NoError(t, repo.Create(ctx, habit))

		got, err := repo.GetByID(ctx, habit.ID)
		require.NoError(t, err)
		assert.Equal(t, "Morning run", got.Title)

		_, err = repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	})

	t.Run("list is scoped to the user and ordered", func(t *testing.T) {
		repo := NewInMemoryHabitRepository()

		first := seedHabit(t, "user-1", "Stretch")
		first.SortOrder = 2
		second := seedHabit(t, "user-1", "Read")
		second.SortOrder = 1
		other := seedHabit(t, "user-2", "Meditate")

		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))
		require.NoError(t, repo.Create(ctx, other))

		habits, err := repo.ListByUserID(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, habits, 2)
		assert.Equal(t, "Read", habits[0].Title)
		assert.Equal(t, "Stretch", habits[1].Title)
	})

	t.Run("update enforces the version", func(t *testing.T) {
		repo := NewInMemoryHabitRepository()
		habit := seedHabit(t, "user-1", "Journal")
		require.NoError(t, repo.Create(ctx, habit))

		require.NoError(t, repo.Update(ctx, habit))
		assert.Equal(t, 2, habit.Version)

		stale := *habit
		stale.Version = 1
		assert.ErrorIs(t, repo.Update(ctx, &stale), domain.ErrHabitConflict)
	})

	t.Run("delete removes the habit", func(t *testing.T) {
		repo := NewInMemoryHabitRepository()
		habit := seedHabit(t, "user-1", "Water plants")
		require.NoError(t, repo.Create(ctx, habit))

		require.NoError(t, repo.Delete(ctx, habit.ID))

		_, err := repo.GetByID(ctx, habit.ID)
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, habit.ID), domain.ErrHabitNotFound)
	})

	t.Run("changes since a checkpoint", func(t *testing.T) {
		repo := NewInMemoryHabitRepository()

		old := seedHabit(t, "user-1", "Old")
		old.UpdatedAt = time.Now().UTC().Add(-48 * time.Hour)
		fresh := seedHabit(t, "user-1", "Fresh")

		require.NoError(t, repo.Create(ctx, old))
		require.NoError(t, repo.Create(ctx, fresh))

		changed, err := repo.GetChanges(ctx, "user-1", time.Now().UTC().Add(-time.Hour))
		require.NoError(t, err)
		require.Len(t, changed, 1)
		assert.Equal(t, "Fresh", changed[0].Title)
	})

	t.Run("score update leaves the version alone", func(t *testing.T) {
		repo := NewInMemoryHabitRepository()
		habit := seedHabit(t, "user-1", "Run")
		require.NoError(t, repo.Create(ctx, habit))

		require.NoError(t, repo.UpdateScore(ctx, habit.ID, 1100, 4))

		got, err := repo.GetByID(ctx, habit.ID)
		require.NoError(t, err)
		assert.Equal(t, 1100, got.Urgency)
		assert.Equal(t, 4, got.Streak)
		assert.Equal(t, 1, got.Version)

		assert.ErrorIs(t, repo.UpdateScore(ctx, "missing", 0, 0), domain.ErrHabitNotFound)
	})
}
