package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lucagrillo/habitgrid/internal/core/domain"
	"github.com/lucagrillo/habitgrid/internal/core/services"
)

func TestToggleTracker(t *testing.T) {
	t.Run("Done then undone fires", func(t *testing.T) {
		var tracker services.ToggleTracker

		tracker.Observe(true)
		assert.False(t, tracker.ShouldReschedule())

		tracker.Observe(false)
		assert.True(t, tracker.ShouldReschedule())
	})

	t.Run("Undone then done does not fire", func(t *testing.T) {
		var tracker services.ToggleTracker

		tracker.Observe(false)
		tracker.Observe(true)
		assert.False(t, tracker.ShouldReschedule())
	})

	t.Run("Single observation never fires", func(t *testing.T) {
		var tracker services.ToggleTracker

		tracker.Observe(false)
		assert.False(t, tracker.ShouldReschedule())
	})

	t.Run("Reset clears the slots", func(t *testing.T) {
		var tracker services.ToggleTracker

		tracker.Observe(true)
		tracker.Observe(false)
		tracker.Reset()
		assert.False(t, tracker.ShouldReschedule())
	})
}

func TestRescheduleService_Preview(t *testing.T) {
	ctx := context.Background()
	uid := "user-1"

	t.Run("Fixed: anchors on the last completion day", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		svc := services.NewRescheduleService(habitRepo, completionRepo, getTestWorker())

		// Scheduled Monday 2026-03-02, workweek only, every 2 days.
		scheduled := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		habit := seedHabit(t, habitRepo, uid, "Run", ".+2d", "1 2 3 4 5", scheduled)

		// Last done Thursday 2026-03-05; two days later is Saturday,
		// which the weekday set pushes to Monday 2026-03-09.
		completionRepo.On("ListByHabitID", ctx, habit.ID, mock.Anything, mock.Anything).
			Return([]*domain.Completion{
				{ID: "c1", HabitID: habit.ID, UserID: uid, CompletedOn: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
			}, nil)

		result, err := svc.Preview(ctx, services.RescheduleInput{
			HabitID: habit.ID,
			UserID:  uid,
			From:    time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.Equal(t, "2026-03-09", result.NextDate)
		assert.Equal(t, 1, result.NextWeekday, "lands on a Monday")
		assert.False(t, result.Applied)
	})

	t.Run("Fixed: falls back to the reference day without completions", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		svc := services.NewRescheduleService(habitRepo, completionRepo, getTestWorker())

		scheduled := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		habit := seedHabit(t, habitRepo, uid, "Run", ".+3d", "", scheduled)

		completionRepo.On("ListByHabitID", ctx, habit.ID, mock.Anything, mock.Anything).
			Return([]*domain.Completion{}, nil)

		result, err := svc.Preview(ctx, services.RescheduleInput{
			HabitID: habit.ID,
			UserID:  uid,
			From:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.Equal(t, "2026-03-13", result.NextDate)
	})

	t.Run("Accumulating: one period from the old date even if still past", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		svc := services.NewRescheduleService(habitRepo, completionRepo, getTestWorker())

		scheduled := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		habit := seedHabit(t, habitRepo, uid, "Water plants", "+1w", "", scheduled)

		result, err := svc.Preview(ctx, services.RescheduleInput{
			HabitID: habit.ID,
			UserID:  uid,
			From:    time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.Equal(t, "2026-03-09", result.NextDate)
	})

	t.Run("CatchUp: steps in periods until past the reference day", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		svc := services.NewRescheduleService(habitRepo, completionRepo, getTestWorker())

		scheduled := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
		habit := seedHabit(t, habitRepo, uid, "Review notes", "++2d", "", scheduled)

		result, err := svc.Preview(ctx, services.RescheduleInput{
			HabitID: habit.ID,
			UserID:  uid,
			From:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.Equal(t, "2026-03-11", result.NextDate)
	})

	t.Run("Security: Should refuse another user's habit", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		svc := services.NewRescheduleService(habitRepo, completionRepo, getTestWorker())

		habit := seedHabit(t, habitRepo, "victim", "Secret", ".+1d", "", time.Now().UTC())

		_, err := svc.Preview(ctx, services.RescheduleInput{HabitID: habit.ID, UserID: "attacker"})

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestRescheduleService_Apply(t *testing.T) {
	ctx := context.Background()
	uid := "user-1"

	t.Run("Success: writes the new date and clears the deadline", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		svc := services.NewRescheduleService(habitRepo, completionRepo, getTestWorker())

		scheduled := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		habit, err := domain.NewHabit(uid, "Run", "", "", "+2d", "", scheduled, ptr(scheduled.AddDate(0, 0, 1)))
		require.NoError(t, err)
		require.NoError(t, habitRepo.Create(ctx, habit))

		result, err := svc.Apply(ctx, services.RescheduleInput{
			HabitID: habit.ID,
			UserID:  uid,
			From:    time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
			Version: 1,
		})

		require.NoError(t, err)
		assert.True(t, result.Applied)
		assert.Equal(t, "2026-03-04", result.NextDate)

		stored, err := habitRepo.GetByID(ctx, habit.ID)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-04", stored.ScheduledAt.Format("2006-01-02"))
		assert.Nil(t, stored.DeadlineAt)
		assert.Equal(t, 2, stored.Version)
	})

	t.Run("Optimistic Locking: stale client version rejected", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		svc := services.NewRescheduleService(habitRepo, completionRepo, getTestWorker())

		habit := seedHabit(t, habitRepo, uid, "Run", "+1d", "", time.Now().UTC())

		_, err := svc.Apply(ctx, services.RescheduleInput{
			HabitID: habit.ID,
			UserID:  uid,
			Version: 99,
		})

		assert.ErrorIs(t, err, domain.ErrHabitConflict)
	})
}

func TestRescheduleService_ObserveToggle(t *testing.T) {
	ctx := context.Background()
	uid := "user-1"

	t.Run("Done then undone reschedules the habit", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		svc := services.NewRescheduleService(habitRepo, completionRepo, getTestWorker())

		scheduled := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		habit := seedHabit(t, habitRepo, uid, "Water plants", "+1w", "", scheduled)

		result, err := svc.ObserveToggle(ctx, habit.ID, uid, true)
		require.NoError(t, err)
		assert.Nil(t, result, "first toggle alone must not fire")

		result, err = svc.ObserveToggle(ctx, habit.ID, uid, false)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.True(t, result.Applied)
		assert.Equal(t, "2026-03-09", result.NextDate)

		stored, err := habitRepo.GetByID(ctx, habit.ID)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-09", stored.ScheduledAt.Format("2006-01-02"))
	})

	t.Run("Trackers are scoped per user and habit", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		svc := services.NewRescheduleService(habitRepo, completionRepo, getTestWorker())

		scheduled := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		h1 := seedHabit(t, habitRepo, uid, "One", "+1w", "", scheduled)
		h2 := seedHabit(t, habitRepo, uid, "Two", "+1w", "", scheduled)

		_, err := svc.ObserveToggle(ctx, h1.ID, uid, true)
		require.NoError(t, err)

		// The undone toggle lands on a different habit's tracker.
		result, err := svc.ObserveToggle(ctx, h2.ID, uid, false)
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}
