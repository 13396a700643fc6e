package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lucagrillo/habitgrid/internal/core/domain"
	"github.com/lucagrillo/habitgrid/internal/core/graph"
	"github.com/lucagrillo/habitgrid/internal/core/services"
)

type MockUserRepo struct {
	store map[string]*domain.User
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: make(map[string]*domain.User)}
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	clone := *user
	m.store[user.ID] = &clone
	return nil
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.store {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := m.store[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *user
	m.store[user.ID] = &clone
	return nil
}

var _ domain.UserRepository = (*MockUserRepo)(nil)

func seedUser(t *testing.T, repo *MockUserRepo, id string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(id, id+"@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestGraphService_BuildGraph(t *testing.T) {
	ctx := context.Background()
	uid := "user-1"

	t.Run("Success: One cell per day, done day marked", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		userRepo := NewMockUserRepo()
		svc := services.NewGraphService(habitRepo, completionRepo, userRepo)

		seedUser(t, userRepo, uid)

		now := time.Now().UTC()
		habit := seedHabit(t, habitRepo, uid, "Run", ".+1d", "", now)

		yesterday := now.AddDate(0, 0, -1)
		completionRepo.On("ListByHabitID", ctx, habit.ID, mock.Anything, mock.Anything).
			Return([]*domain.Completion{
				{ID: "c1", HabitID: habit.ID, UserID: uid, CompletedOn: yesterday},
			}, nil)

		start := now.AddDate(0, 0, -3)
		end := now.AddDate(0, 0, 2)

		view, err := svc.BuildGraph(ctx, services.GraphInput{
			HabitID: habit.ID,
			UserID:  uid,
			Start:   start,
			End:     end,
		})

		require.NoError(t, err)
		assert.Equal(t, habit.ID, view.HabitID)
		assert.Equal(t, "Run", view.HabitTitle)
		assert.Len(t, view.Cells, 6)

		var doneCells int
		for _, cell := range view.Cells {
			if cell.Glyph == graph.GlyphDone {
				doneCells++
				assert.Equal(t, yesterday.Format("2006-01-02"), cell.Date)
			}
		}
		assert.Equal(t, 1, doneCells)
	})

	t.Run("Default window when no range given", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		userRepo := NewMockUserRepo()
		svc := services.NewGraphService(habitRepo, completionRepo, userRepo)

		seedUser(t, userRepo, uid)
		habit := seedHabit(t, habitRepo, uid, "Run", ".+1d", "", time.Now().UTC())

		completionRepo.On("ListByHabitID", ctx, habit.ID, mock.Anything, mock.Anything).
			Return([]*domain.Completion{}, nil)

		view, err := svc.BuildGraph(ctx, services.GraphInput{HabitID: habit.ID, UserID: uid})

		require.NoError(t, err)
		assert.Len(t, view.Cells, 29, "21 days back plus today plus 7 days ahead")
	})

	t.Run("Security: Should refuse another user's habit", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		userRepo := NewMockUserRepo()
		svc := services.NewGraphService(habitRepo, completionRepo, userRepo)

		habit := seedHabit(t, habitRepo, "victim", "Secret", ".+1d", "", time.Now().UTC())

		_, err := svc.BuildGraph(ctx, services.GraphInput{HabitID: habit.ID, UserID: "attacker"})

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestGraphService_Agenda(t *testing.T) {
	ctx := context.Background()
	uid := "user-1"

	t.Run("Due habits sorted by priority, clear habits excluded", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		userRepo := NewMockUserRepo()
		svc := services.NewGraphService(habitRepo, completionRepo, userRepo)

		seedUser(t, userRepo, uid)

		now := time.Now().UTC()
		slightly := seedHabit(t, habitRepo, uid, "Slightly late", ".+1d", "", now.AddDate(0, 0, -1))
		badly := seedHabit(t, habitRepo, uid, "Badly late", ".+1d", "", now.AddDate(0, 0, -5))
		upcoming := seedHabit(t, habitRepo, uid, "Upcoming", ".+1d", "", now.AddDate(0, 0, 3))

		completionRepo.On("ListByHabitID", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return([]*domain.Completion{}, nil)

		items, err := svc.Agenda(ctx, uid, now)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, badly.ID, items[0].HabitID, "most overdue first")
		assert.Equal(t, slightly.ID, items[1].HabitID)
		assert.Greater(t, items[0].Priority, items[1].Priority)

		for _, item := range items {
			assert.NotEqual(t, upcoming.ID, item.HabitID)
		}
	})
}

func TestGraphService_GetOverview(t *testing.T) {
	ctx := context.Background()
	uid := "user-1"

	t.Run("Cell counts cover the whole window for every habit", func(t *testing.T) {
		habitRepo := NewMockHabitRepo()
		completionRepo := new(MockCompletionRepo)
		userRepo := NewMockUserRepo()
		svc := services.NewGraphService(habitRepo, completionRepo, userRepo)

		seedUser(t, userRepo, uid)

		now := time.Now().UTC()
		h1 := seedHabit(t, habitRepo, uid, "One", ".+1d", "", now)
		seedHabit(t, habitRepo, uid, "Two", "+2d", "", now)

		completionRepo.On("ListByHabitID", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return([]*domain.Completion{
				{ID: "c1", HabitID: h1.ID, UserID: uid, CompletedOn: now},
			}, nil)

		start := now.AddDate(0, 0, -2)
		end := now.AddDate(0, 0, 1)

		overview, err := svc.GetOverview(ctx, uid, start, end)

		require.NoError(t, err)
		assert.Equal(t, 2, overview.TotalHabits)
		assert.Equal(t, 8, overview.DoneCells+overview.DueCells+overview.ClearCells,
			"4 days times 2 habits")
		assert.GreaterOrEqual(t, overview.DoneCells, 1)
	})
}
