package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lucagrillo/habitgrid/internal/core/domain"
)

type HabitService struct {
	repo domain.HabitRepository
}

func NewHabitService(repo domain.HabitRepository) *HabitService {
	return &HabitService{
		repo: repo,
	}
}

type CreateHabitInput struct {
	UserID      string
	Title       string
	Description string
	Color       string
	Repeater    string
	Weekdays    string
	ScheduledAt time.Time
	DeadlineAt  *time.Time
}

type UpdateHabitInput struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Color       string
	Repeater    string
	Weekdays    string
	ScheduledAt *time.Time
	DeadlineAt  *time.Time
	Version     int
}

func mergeString(newVal, oldVal string) string {
	if newVal == "" {
		return oldVal
	}
	return newVal
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	scheduledAt := input.ScheduledAt
	if scheduledAt.IsZero() {
		scheduledAt = time.Now().UTC()
	}

	habit, err := domain.NewHabit(
		input.UserID,
		input.Title,
		input.Description,
		input.Color,
		input.Repeater,
		input.Weekdays,
		scheduledAt,
		input.DeadlineAt,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

func (s *HabitService) GetByID(ctx context.Context, id, userID string) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}

	return habit, nil
}

func (s *HabitService) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *HabitService) GetDelta(ctx context.Context, userID string, lastSync time.Time) ([]*domain.Habit, error) {
	return s.repo.GetChanges(ctx, userID, lastSync)
}

func (s *HabitService) Update(ctx context.Context, input UpdateHabitInput) (*domain.Habit, error) {
	habit, err := s.GetByID(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && habit.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrHabitConflict, input.Version, habit.Version)
	}

	title := mergeString(input.Title, habit.Title)
	desc := mergeString(input.Description, habit.Description)
	color := mergeString(input.Color, habit.Color)
	repeater := mergeString(input.Repeater, habit.Repeater)

	weekdays := habit.Weekdays
	if input.Weekdays != "" {
		weekdays = input.Weekdays
	}

	scheduledAt := habit.ScheduledAt
	if input.ScheduledAt != nil {
		scheduledAt = *input.ScheduledAt
	}

	deadlineAt := habit.DeadlineAt
	if input.DeadlineAt != nil {
		deadlineAt = input.DeadlineAt
	}

	if err := habit.Update(title, desc, color, repeater, weekdays, scheduledAt, deadlineAt); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

func (s *HabitService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.GetByID(ctx, id, userID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}
