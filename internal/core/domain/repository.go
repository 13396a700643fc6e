package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrHabitConflict = errors.New("habit version conflict")
)

type HabitRepository interface {
	// Create persists a new habit definition in the storage.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves an active (non-deleted) habit by its identifier.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves all active habits of a user.
	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// Update modifies an existing habit. Implementations must enforce
	// optimistic locking on the version column.
	Update(ctx context.Context, habit *Habit) error

	// Delete performs a soft delete.
	Delete(ctx context.Context, id string) error

	// GetChanges returns the deltas that occurred after a specific date,
	// for offline-first clients catching up.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*Habit, error)

	// UpdateScore persists worker-derived urgency and streak values
	// without bumping the habit's version.
	UpdateScore(ctx context.Context, id string, urgency, streak int) error
}

type CompletionRepository interface {
	// Create persists a new completion.
	Create(ctx context.Context, completion *Completion) error

	// Update modifies an existing completion under optimistic locking.
	Update(ctx context.Context, completion *Completion) error

	// Delete soft-deletes a completion; userID guards ownership.
	Delete(ctx context.Context, id string, userID string) error

	// GetByID retrieves a single active completion.
	GetByID(ctx context.Context, id string) (*Completion, error)

	// ListByHabitID retrieves the completions of one habit inside a date
	// range, ascending by completion day. The graph builder feeds on this.
	ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*Completion, error)

	// GetChanges returns completion deltas after 'since' for sync clients.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*Completion, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}
