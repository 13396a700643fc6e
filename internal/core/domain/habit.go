package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lucagrillo/habitgrid/internal/core/calendar"
)

var (
	ErrHabitTitleEmpty    = errors.New("habit title cannot be empty")
	ErrHabitTitleTooLong  = errors.New("habit title is too long (max 100 chars)")
	ErrHabitDescTooLong   = errors.New("habit description is too long (max 500 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
	ErrInvalidColor       = errors.New("invalid color format (must be #RRGGBB)")
	ErrHabitArchived      = errors.New("cannot update an archived habit")
)

var colorRegex = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

const (
	MaxTitleLen = 100
	MaxDescLen  = 500
)

// Habit is the stored definition of a recurring task: its repeater token,
// its weekday restriction, and the scheduled date as last written. The pure
// graph/scoring code never sees this type; it sees the HabitRecord snapshot
// produced by Snapshot.
type Habit struct {
	ID          string `json:"id" db:"id"`
	UserID      string `json:"user_id" db:"user_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description,omitempty" db:"description"`
	Color       string `json:"color" db:"color"`

	Repeater    string     `json:"repeater" db:"repeater"`
	Weekdays    string     `json:"weekdays,omitempty" db:"weekdays"`
	ScheduledAt time.Time  `json:"scheduled_at" db:"scheduled_at"`
	DeadlineAt  *time.Time `json:"deadline_at,omitempty" db:"deadline_at"`

	// Urgency and Streak are derived values maintained by the score worker;
	// they exist so agenda listings can sort without recomputing.
	Urgency int `json:"urgency" db:"urgency"`
	Streak  int `json:"streak" db:"streak"`

	SortOrder int `json:"sort_order" db:"sort_order"`

	Version    int        `json:"version" db:"version"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty" db:"archived_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func validateHabitFields(title, desc, color, repeater, weekdays string) error {
	if strings.TrimSpace(title) == "" {
		return ErrHabitTitleEmpty
	}
	if len(strings.TrimSpace(title)) > MaxTitleLen {
		return ErrHabitTitleTooLong
	}
	if len(strings.TrimSpace(desc)) > MaxDescLen {
		return ErrHabitDescTooLong
	}
	if color != "" && !colorRegex.MatchString(color) {
		return ErrInvalidColor
	}
	if _, err := ParseRepeater(repeater); err != nil {
		return err
	}
	if _, err := calendar.ParseWeekdaySet(weekdays); err != nil {
		return err
	}
	return nil
}

// NewHabit validates and builds a habit. The repeater token and weekday
// spec are parsed here once; storage keeps the raw strings.
func NewHabit(userID, title, description, color, repeater, weekdays string, scheduledAt time.Time, deadlineAt *time.Time) (*Habit, error) {
	if userID == "" {
		return nil, ErrHabitInvalidUserID
	}

	if err := validateHabitFields(title, description, color, repeater, weekdays); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Habit{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Color:       color,
		Repeater:    repeater,
		Weekdays:    strings.TrimSpace(weekdays),
		ScheduledAt: scheduledAt.UTC(),
		DeadlineAt:  deadlineAt,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (h *Habit) Update(title, description, color, repeater, weekdays string, scheduledAt time.Time, deadlineAt *time.Time) error {
	if h.ArchivedAt != nil {
		return ErrHabitArchived
	}

	if err := validateHabitFields(title, description, color, repeater, weekdays); err != nil {
		return err
	}

	h.Title = strings.TrimSpace(title)
	h.Description = strings.TrimSpace(description)
	h.Color = color
	h.Repeater = repeater
	h.Weekdays = strings.TrimSpace(weekdays)
	h.ScheduledAt = scheduledAt.UTC()
	h.DeadlineAt = deadlineAt
	h.UpdatedAt = time.Now().UTC()

	return nil
}

// Reschedule moves the scheduled date and clears any explicit deadline so
// the repeater's deadline interval takes over again.
func (h *Habit) Reschedule(scheduledAt time.Time) error {
	if h.ArchivedAt != nil {
		return ErrHabitArchived
	}

	h.ScheduledAt = scheduledAt.UTC()
	h.DeadlineAt = nil
	h.UpdatedAt = time.Now().UTC()
	return nil
}

func (h *Habit) ChangePosition(newOrder int) error {
	if h.ArchivedAt != nil {
		return ErrHabitArchived
	}

	h.SortOrder = newOrder
	h.UpdatedAt = time.Now().UTC()
	return nil
}

func (h *Habit) Archive() {
	if h.ArchivedAt != nil {
		return
	}

	now := time.Now().UTC()
	h.ArchivedAt = &now
	h.UpdatedAt = now
}

func (h *Habit) Restore() {
	if h.ArchivedAt == nil {
		return
	}
	h.ArchivedAt = nil
	h.UpdatedAt = time.Now().UTC()
}

// Snapshot freezes the habit plus its completion times into the immutable
// record the graph and scoring code consumes.
func (h *Habit) Snapshot(done []time.Time) (*HabitRecord, error) {
	scheduled := h.ScheduledAt
	return NewHabitRecord(RecordInput{
		Title:       h.Title,
		Scheduled:   &scheduled,
		Deadline:    h.DeadlineAt,
		Repeater:    h.Repeater,
		WeekdaySpec: h.Weekdays,
		Done:        done,
	})
}
