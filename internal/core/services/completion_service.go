package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lucagrillo/habitgrid/internal/core/domain"
	"github.com/lucagrillo/habitgrid/internal/core/workers"
)

type CompletionService struct {
	repo      domain.CompletionRepository
	habitRepo domain.HabitRepository
	worker    *workers.ScoreWorker
}

func NewCompletionService(repo domain.CompletionRepository, habitRepo domain.HabitRepository, worker *workers.ScoreWorker) *CompletionService {
	return &CompletionService{
		repo:      repo,
		habitRepo: habitRepo,
		worker:    worker,
	}
}

type CreateCompletionInput struct {
	HabitID     string
	UserID      string
	CompletedOn time.Time
	Notes       string
}

type UpdateCompletionInput struct {
	ID      string
	UserID  string
	Notes   string
	Version int
}

func (s *CompletionService) Create(ctx context.Context, input CreateCompletionInput) (*domain.Completion, error) {
	completion := domain.NewCompletion(input.HabitID, input.UserID, input.CompletedOn)
	completion.Notes = input.Notes

	if err := completion.Validate(); err != nil {
		return nil, err
	}

	habit, err := s.habitRepo.GetByID(ctx, completion.HabitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != completion.UserID {
		return nil, domain.ErrUnauthorized
	}

	if err := s.repo.Create(ctx, completion); err != nil {
		return nil, err
	}

	s.worker.Enqueue(completion.HabitID)

	return completion, nil
}

func (s *CompletionService) Update(ctx context.Context, input UpdateCompletionInput) (*domain.Completion, error) {
	existing, err := s.GetByID(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && existing.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrCompletionConflict, input.Version, existing.Version)
	}

	existing.Notes = input.Notes

	existing.Version++
	existing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.worker.Enqueue(existing.HabitID)

	return existing, nil
}

func (s *CompletionService) GetByID(ctx context.Context, id string, userID string) (*domain.Completion, error) {
	completion, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if completion.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return completion, nil
}

func (s *CompletionService) ListByHabitID(ctx context.Context, habitID string, userID string, from, to time.Time) ([]*domain.Completion, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	return s.repo.ListByHabitID(ctx, habitID, from, to)
}

func (s *CompletionService) Delete(ctx context.Context, id string, userID string) error {
	completion, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if completion.UserID != userID {
		return domain.ErrUnauthorized
	}

	habitID := completion.HabitID

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.worker.Enqueue(habitID)

	return nil
}

func (s *CompletionService) GetDelta(ctx context.Context, userID string, since time.Time) ([]*domain.Completion, error) {
	return s.repo.GetChanges(ctx, userID, since)
}
