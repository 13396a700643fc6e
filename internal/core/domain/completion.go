package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCompletion  = errors.New("invalid completion data")
	ErrCompletionNotFound = errors.New("completion not found")
	ErrCompletionConflict = errors.New("completion version conflict")
	ErrUnauthorized       = errors.New("resource does not belong to the user")
)

// Completion marks a habit as done on one calendar day. Several completions
// on the same day are legal; the graph collapses them to a single done cell.
type Completion struct {
	ID      string `json:"id" db:"id"`
	HabitID string `json:"habit_id" db:"habit_id"`
	UserID  string `json:"user_id" db:"user_id"`

	CompletedOn time.Time `json:"completed_on" db:"completed_on"`
	Notes       string    `json:"notes" db:"notes"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func NewCompletion(habitID, userID string, completedOn time.Time) *Completion {
	now := time.Now().UTC()

	return &Completion{
		ID:          uuid.NewString(),
		HabitID:     habitID,
		UserID:      userID,
		CompletedOn: completedOn.UTC(),

		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Completion) Validate() error {
	if strings.TrimSpace(c.HabitID) == "" {
		return fmt.Errorf("%w: habit_id is required", ErrInvalidCompletion)
	}
	if strings.TrimSpace(c.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidCompletion)
	}
	if c.CompletedOn.IsZero() {
		return fmt.Errorf("%w: completed_on is required", ErrInvalidCompletion)
	}
	return nil
}
