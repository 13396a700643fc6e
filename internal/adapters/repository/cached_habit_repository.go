package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lucagrillo/habitgrid/internal/core/domain"
)

const habitListTTL = 30 * time.Minute

var _ domain.HabitRepository = (*CachedHabitRepository)(nil)

// CachedHabitRepository wraps another habit repository with a per-user
// redis cache of the habit list. The list backs both the agenda and the
// graph overview, so it is by far the hottest read path.
type CachedHabitRepository struct {
	next  domain.HabitRepository
	cache *redis.Client
}

func NewCachedHabitRepository(next domain.HabitRepository, cache *redis.Client) *CachedHabitRepository {
	return &CachedHabitRepository{next: next, cache: cache}
}

func listKey(userID string) string {
	return "habits:user:" + userID
}

func (r *CachedHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	if habits, ok := r.readList(ctx, userID); ok {
		return habits, nil
	}

	habits, err := r.next.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.storeList(ctx, userID, habits)
	return habits, nil
}

func (r *CachedHabitRepository) readList(ctx context.Context, userID string) ([]*domain.Habit, bool) {
	payload, err := r.cache.Get(ctx, listKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[CACHE] read failed for user %s: %v", userID, err)
		}
		return nil, false
	}

	var habits []*domain.Habit
	if err := json.Unmarshal(payload, &habits); err != nil {
		// A payload that no longer unmarshals is dropped rather than served.
		log.Printf("[CACHE] dropping corrupted list for user %s: %v", userID, err)
		r.cache.Del(ctx, listKey(userID))
		return nil, false
	}

	return habits, true
}

func (r *CachedHabitRepository) storeList(ctx context.Context, userID string, habits []*domain.Habit) {
	payload, err := json.Marshal(habits)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, listKey(userID), payload, habitListTTL).Err(); err != nil {
		log.Printf("[CACHE] write failed for user %s: %v", userID, err)
	}
}

func (r *CachedHabitRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, listKey(userID)).Err(); err != nil {
		log.Printf("[CACHE] invalidate failed for user %s: %v", userID, err)
	}
}

func (r *CachedHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	return r.next.GetChanges(ctx, userID, since)
}

func (r *CachedHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Create(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID)
	return nil
}

func (r *CachedHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Update(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID)
	return nil
}

func (r *CachedHabitRepository) Delete(ctx context.Context, id string) error {
	habit, err := r.next.GetByID(ctx, id)
	if err == nil && habit != nil {
		defer r.invalidate(ctx, habit.UserID)
	}
	return r.next.Delete(ctx, id)
}

// UpdateScore invalidates too: cached lists carry urgency and streak,
// and the agenda sorts on them.
func (r *CachedHabitRepository) UpdateScore(ctx context.Context, id string, urgency, streak int) error {
	habit, err := r.next.GetByID(ctx, id)
	if err == nil && habit != nil {
		defer r.invalidate(ctx, habit.UserID)
	}
	return r.next.UpdateScore(ctx, id, urgency, streak)
}
